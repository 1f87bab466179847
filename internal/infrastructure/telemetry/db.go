package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing attaches the otelgorm plugin so every query runs inside a
// span. Query variables are excluded from span attributes.
func RegisterDBTracing(db *gorm.DB, enabled bool, logger *zap.Logger) error {
	if !enabled {
		logger.Debug("database tracing disabled")
		return nil
	}
	return db.Use(otelgorm.NewPlugin(
		otelgorm.WithoutQueryVariables(),
	))
}
