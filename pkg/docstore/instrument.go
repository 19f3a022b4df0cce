package docstore

import (
	"context"
	"time"
)

// ObserveFunc receives the duration and outcome of each store call.
type ObserveFunc func(op string, duration time.Duration, err error)

type instrumented struct {
	next    Store
	observe ObserveFunc
}

// Instrument wraps a store so every call is reported to observe.
func Instrument(next Store, observe ObserveFunc) Store {
	if observe == nil {
		return next
	}
	return &instrumented{next: next, observe: observe}
}

func (s *instrumented) track(op string, start time.Time, err error) {
	if err == ErrNotFound {
		err = nil
	}
	s.observe(op, time.Since(start), err)
}

func (s *instrumented) Get(ctx context.Context, path string) (doc *Document, err error) {
	defer func(start time.Time) { s.track("get", start, err) }(time.Now())
	return s.next.Get(ctx, path)
}

func (s *instrumented) Set(ctx context.Context, path string, data Data) (err error) {
	defer func(start time.Time) { s.track("set", start, err) }(time.Now())
	return s.next.Set(ctx, path, data)
}

func (s *instrumented) Merge(ctx context.Context, path string, data Data) (err error) {
	defer func(start time.Time) { s.track("merge", start, err) }(time.Now())
	return s.next.Merge(ctx, path, data)
}

func (s *instrumented) Update(ctx context.Context, path string, updates Data) (err error) {
	defer func(start time.Time) { s.track("update", start, err) }(time.Now())
	return s.next.Update(ctx, path, updates)
}

func (s *instrumented) Delete(ctx context.Context, path string) (err error) {
	defer func(start time.Time) { s.track("delete", start, err) }(time.Now())
	return s.next.Delete(ctx, path)
}

func (s *instrumented) List(ctx context.Context, collection string) (docs []Document, err error) {
	defer func(start time.Time) { s.track("list", start, err) }(time.Now())
	return s.next.List(ctx, collection)
}

func (s *instrumented) Query(ctx context.Context, collection string, filters ...Filter) (docs []Document, err error) {
	defer func(start time.Time) { s.track("query", start, err) }(time.Now())
	return s.next.Query(ctx, collection, filters...)
}
