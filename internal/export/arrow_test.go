package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1insights/internal/engine"
)

func TestWriteArrow(t *testing.T) {
	store, err := engine.LoadCSV(strings.NewReader("Nationality,Race_Entries,Podiums\nBritish,200,\nGerman,150,40\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, store))

	rdr, err := ipc.NewReader(&buf)
	require.NoError(t, err)
	defer rdr.Release()

	schema := rdr.Schema()
	require.Equal(t, 3, len(schema.Fields()))
	assert.Equal(t, "Nationality", schema.Field(0).Name)
	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(0).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Float64, schema.Field(1).Type)

	require.True(t, rdr.Next())
	rec := rdr.Record()
	assert.Equal(t, int64(2), rec.NumRows())

	nat := rec.Column(0).(*array.String)
	assert.Equal(t, "British", nat.Value(0))
	assert.Equal(t, "German", nat.Value(1))

	podiums := rec.Column(2).(*array.Float64)
	assert.True(t, podiums.IsNull(0))
	assert.Equal(t, 40.0, podiums.Value(1))

	assert.False(t, rdr.Next())
}

func TestWriteArrowEmpty(t *testing.T) {
	store, err := engine.LoadCSV(strings.NewReader("Nationality,Race_Entries\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, store))

	rdr, err := ipc.NewReader(&buf)
	require.NoError(t, err)
	defer rdr.Release()
	require.True(t, rdr.Next())
	assert.Equal(t, int64(0), rdr.Record().NumRows())
}
