package appcontext

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextId int

const (
	runIdKeyId contextId = iota
	triggerKeyId
	artifactKeyId
	requestIdKeyId
)

func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, requestIdKeyId, requestId)
}

func WithRunId(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIdKeyId, id)
}

func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKeyId, trigger)
}

func WithArtifact(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, artifactKeyId, name)
}

func RequestId(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKeyId).(string)
	return id
}

func RunId(ctx context.Context) string {
	id, _ := ctx.Value(runIdKeyId).(string)
	return id
}

func LoggerFromContext(logger logrus.FieldLogger, ctx context.Context) logrus.FieldLogger {
	if ctx == nil {
		return logger
	}

	result := logger

	if ctxRunId, ok := ctx.Value(runIdKeyId).(string); ok && ctxRunId != "" {
		result = result.WithField("run_id", ctxRunId)
	}

	if ctxTrigger, ok := ctx.Value(triggerKeyId).(string); ok && ctxTrigger != "" {
		result = result.WithField("trigger", ctxTrigger)
	}

	if ctxArtifact, ok := ctx.Value(artifactKeyId).(string); ok && ctxArtifact != "" {
		result = result.WithField("artifact", ctxArtifact)
	}

	if ctxRequestId, ok := ctx.Value(requestIdKeyId).(string); ok && ctxRequestId != "" {
		result = result.WithField("request_id", ctxRequestId)
	}

	return result
}
