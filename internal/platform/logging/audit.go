package logging

import (
	"context"

	"go.uber.org/zap"
)

// LogAuditEvent records a security-relevant action in the request log under
// namespaced audit.* keys, keeping audit entries queryable separately from
// ordinary request logs.
//
// action names what happened ("create", "introspect"), userID identifies the
// caller (object ID or token subject), and result is "success" or "failure".
// resourceID and details may be empty; they are omitted from the entry.
func LogAuditEvent(
	ctx context.Context,
	action, userID, resourceType, resourceID, result string,
	details map[string]any,
) {
	fields := make([]zap.Field, 0, 6)
	fields = append(fields,
		zap.String("audit.action", action),
		zap.String("audit.user_id", userID),
		zap.String("audit.resource_type", resourceType),
	)
	if resourceID != "" {
		fields = append(fields, zap.String("audit.resource_id", resourceID))
	}
	fields = append(fields, zap.String("audit.result", result))
	if len(details) > 0 {
		fields = append(fields, zap.Any("audit.details", details))
	}

	LoggerFromContext(ctx).Info("Audit event", fields...)
}
