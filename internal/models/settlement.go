package models

// SettlementResult is what the settlement engine hands back to the transport
// layer after a successful atomic credit. Per-action fields are only set for
// the action that produced them.
type SettlementResult struct {
	Reward        float64 `json:"reward"`
	NewBalance    float64 `json:"new_balance"`
	TransactionID int64   `json:"transaction_id,omitempty"`
	Message       string  `json:"message"`

	SpinType       string `json:"spin_type,omitempty"`
	Score          int    `json:"score,omitempty"`
	CorrectAnswers int    `json:"correct_answers,omitempty"`
	TotalQuestions int    `json:"total_questions,omitempty"`
	CorrectNumber  int    `json:"correct_number,omitempty"`
	Won            bool   `json:"won,omitempty"`
}
