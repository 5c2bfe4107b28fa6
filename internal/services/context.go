package services

import "context"

type contextKey string

const (
	collectionIDKey contextKey = "collection_id"
	volumeKey       contextKey = "volume"
	stageKey        contextKey = "stage"
	runIDKey        contextKey = "run_id"
)

// WithCollectionID annotates context with the catalog collection identifier.
func WithCollectionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, collectionIDKey, id)
}

// CollectionIDFromContext extracts the collection identifier if present.
func CollectionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(collectionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithVolume annotates context with the volume number being processed.
func WithVolume(ctx context.Context, number int) context.Context {
	return context.WithValue(ctx, volumeKey, number)
}

// VolumeFromContext extracts the volume number if present.
func VolumeFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(volumeKey).(int)
	return v, ok
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
