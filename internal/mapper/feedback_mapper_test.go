package mapper

import (
	"testing"

	"github.com/pagpeter/obsidian-extensions/internal/dto"
	"github.com/pagpeter/obsidian-extensions/internal/model"
	"github.com/pagpeter/obsidian-extensions/pkg/sokrates"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackMapper_ToModelAndBack(t *testing.T) {
	m := NewFeedbackMapper()
	res := &dto.SokratesEvaluateResponse{
		Id: uuid.New(),
		Feedback: sokrates.Feedback{
			IsValid:  true,
			Summary:  "Gut.",
			Comments: []sokrates.Comment{{Type: "hint", Title: "Stil", Text: "Kürzer."}},
		},
		Callout:  "> [!success] Sokrates Feedback\n",
		Progress: []string{"Analysiere"},
	}

	record, err := m.ToModel("Lösung", res)
	require.NoError(t, err)
	assert.Equal(t, res.Id, record.ID)
	assert.Equal(t, "Lösung", record.Submission)
	assert.False(t, record.CreatedAt.IsZero())

	out, err := m.ToDTO(record)
	require.NoError(t, err)
	assert.Equal(t, res.Feedback.Comments, out.Comments)
	assert.Equal(t, res.Callout, out.Callout)
	assert.True(t, out.IsValid)
}

func TestFeedbackMapper_ToDTOUnreadableComments(t *testing.T) {
	out, err := NewFeedbackMapper().ToDTO(&model.SokratesFeedback{ID: uuid.New(), Summary: "x", Comments: []byte("{broken")})
	assert.Error(t, err)
	assert.Nil(t, out.Comments)
	assert.Equal(t, "x", out.Summary)
}
