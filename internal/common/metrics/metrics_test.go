package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
)

func TestRecordOperation_LabelsByErrorKind(t *testing.T) {
	before := testutil.ToFloat64(operations.WithLabelValues("order_confirm", "INVALID_TRANSITION"))

	RecordOperation("order_confirm", domain.NewInvalidTransitionError("DELIVERED", "CONFIRMED"))
	RecordOperation("order_confirm", nil)

	assert.Equal(t, before+1, testutil.ToFloat64(operations.WithLabelValues("order_confirm", "INVALID_TRANSITION")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(operations.WithLabelValues("order_confirm", "ok")), 1.0)
}

func TestResultLabel_UnkindedError(t *testing.T) {
	assert.Equal(t, "INTERNAL_ERROR", resultLabel(errors.New("boom")))
	assert.Equal(t, "ok", resultLabel(nil))
}
