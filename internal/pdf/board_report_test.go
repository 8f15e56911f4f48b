package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/models"
)

func TestBoardReport_CoreFontFallback(t *testing.T) {
	gen := NewReportGenerator("does/not/exist.ttf")
	data := BoardReportData{
		WorkspaceID: "ws-1",
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Columns: []models.BoardColumn{
			{
				Stage: models.Stage{ID: "base", Name: "Base"},
				Leads: []models.Lead{
					{ID: "L1", Name: "João Araújo", Company: "ACME Indústria", Email: "joao@acme.com.br"},
					{ID: "L2", Name: "A very long lead name that will not fit inside the name column at all", Phone: "11999999999"},
				},
			},
			{Stage: models.Stage{ID: "reuniao_agendada", Name: "Reunião Agendada"}, Leads: []models.Lead{}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, gen.BoardReport(&buf, data))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestBoardReport_EmptyBoard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReportGenerator("").BoardReport(&buf, BoardReportData{WorkspaceID: "ws-1", GeneratedAt: time.Now()}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
