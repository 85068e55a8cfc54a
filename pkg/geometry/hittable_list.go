package geometry

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// HittableList is an ordered collection of shapes that is itself hittable
type HittableList struct {
	Objects []core.Hittable
}

// NewHittableList creates a list holding the given objects
func NewHittableList(objects ...core.Hittable) *HittableList {
	return &HittableList{Objects: objects}
}

// Add appends an object to the list
func (l *HittableList) Add(object core.Hittable) {
	l.Objects = append(l.Objects, object)
}

// Clear removes every object
func (l *HittableList) Clear() {
	l.Objects = nil
}

// Len returns the number of objects
func (l *HittableList) Len() int {
	return len(l.Objects)
}

// Hit returns the closest hit across every object in the list.
// The search interval shrinks to the closest hit so far, so on equal t the
// earlier object wins.
func (l *HittableList) Hit(ray core.Ray, rayT core.Interval) (core.HitRecord, bool) {
	var closestHit core.HitRecord
	closestSoFar := rayT.Max
	hitAnything := false

	for _, object := range l.Objects {
		if hit, isHit := object.Hit(ray, core.NewInterval(rayT.Min, closestSoFar)); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, hitAnything
}
