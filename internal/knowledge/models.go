package knowledge

import "time"

// Document is one knowledge base record.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult pairs a document with its relevance score.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Stats summarizes the knowledge base for health and stats endpoints.
type Stats struct {
	TotalDocuments  int            `json:"total_documents"`
	TotalCharacters int            `json:"total_characters"`
	Categories      map[string]int `json:"categories"`
	HasVectorIndex  bool           `json:"has_vector_index"`
	EncoderTier     string         `json:"encoder_tier"`
}
