package model

// PhoneticMapping biases recognition of Word towards the Phonetic spelling.
type PhoneticMapping struct {
	Word     string
	Phonetic string
}
