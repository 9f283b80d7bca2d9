package dto

type AnkiSyncRequest struct {
	Folder   string `json:"folder" validate:"required"`
	DeckName string `json:"deck_name" validate:"required"`
}

type AnkiSyncResponse struct {
	DeckName string  `json:"deck_name"`
	Files    int     `json:"files"`
	Cards    int     `json:"cards"`
	NoteIDs  []int64 `json:"note_ids"`
}

type AnkiCardDTO struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type AnkiPreviewRequest struct {
	Content string `json:"content" validate:"required"`
}

type AnkiPreviewResponse struct {
	Cards []AnkiCardDTO `json:"cards"`
}
