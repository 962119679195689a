package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeError(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := NewDecodeError("hierarchical", cause)

	assert.Contains(t, err.Error(), "hierarchical")
	assert.Contains(t, err.Error(), "unexpected end of JSON input")
	assert.ErrorIs(t, err, cause)

	var de *DecodeError
	assert.True(t, stderrors.As(err, &de))
	assert.Equal(t, "hierarchical", de.Format)
}

func TestRecordCollector(t *testing.T) {
	rc := NewRecordCollector()
	assert.False(t, rc.HasErrors())

	rc.Add(RecordError{RecordID: "r1", Index: 0, Message: "bad sweep", Severity: SeverityWarning})
	rc.Add(RecordError{RecordID: "r7", Index: 7, Message: "empty type", Severity: SeverityError})
	rc.AddError(fmt.Errorf("general failure"))
	rc.AddError(nil) // ignored

	assert.True(t, rc.HasErrors())
	assert.Len(t, rc.RecordErrors(), 2)
	assert.Len(t, rc.All(), 3)

	recs := rc.RecordErrors()
	assert.Equal(t, "r7", recs[1].RecordID)
	assert.False(t, recs[0].Timestamp.IsZero())
	assert.Contains(t, recs[1].Error(), "error")

	rc.Clear()
	assert.False(t, rc.HasErrors())
	assert.Empty(t, rc.All())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "fatal", SeverityFatal.String())
	assert.Equal(t, "unknown", Severity(42).String())
}
