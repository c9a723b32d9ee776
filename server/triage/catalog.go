package triage

// AnswerKind enumerates the expected answer type of a catalog question.
type AnswerKind int

const (
	AnswerName AnswerKind = iota
	AnswerAge
	AnswerGender
	AnswerFreeText
	AnswerYesNo
)

// Question ids, in interview order.
const (
	QuestionName      = "name"
	QuestionAge       = "age"
	QuestionGender    = "gender"
	QuestionSymptoms  = "symptoms"
	QuestionBleeding  = "bleeding"
	QuestionBreathing = "breathing"
	QuestionChestPain = "chest_pain"
	QuestionMobility  = "mobility"
)

// QuestionDef is one immutable entry of the interview catalog. The validator
// is bound at construction time, so an unknown question kind cannot survive
// to request handling.
type QuestionDef struct {
	ID     string
	Prompt string
	Kind   AnswerKind

	// Validate normalizes and accepts or rejects one raw answer.
	Validate ValidateFunc

	// UrgentOnYes is only meaningful for AnswerYesNo questions. Most boolean
	// questions signal urgency on "Yes"; mobility is inverted ("no" means the
	// patient cannot walk unassisted). The scorer relies on this polarity.
	UrgentOnYes bool
}

var catalog = []QuestionDef{
	{
		ID:       QuestionName,
		Prompt:   "Hi, I'm your AI emergency room triage assistant. I'm here to help you today and assess your condition. Let's start - what is your name?",
		Kind:     AnswerName,
		Validate: validateName,
	},
	{
		ID:       QuestionAge,
		Prompt:   "What is your age?",
		Kind:     AnswerAge,
		Validate: validateAge,
	},
	{
		ID:       QuestionGender,
		Prompt:   "What is your gender? Please say male, female, or other.",
		Kind:     AnswerGender,
		Validate: validateGender,
	},
	{
		ID:       QuestionSymptoms,
		Prompt:   "Please describe your main symptoms and what brought you here today.",
		Kind:     AnswerFreeText,
		Validate: validateSymptoms,
	},
	{
		ID:          QuestionBleeding,
		Prompt:      "Are you currently bleeding from any wounds? Please answer yes or no.",
		Kind:        AnswerYesNo,
		Validate:    validateYesNo,
		UrgentOnYes: true,
	},
	{
		ID:          QuestionBreathing,
		Prompt:      "Are you having trouble breathing? Please answer yes or no.",
		Kind:        AnswerYesNo,
		Validate:    validateYesNo,
		UrgentOnYes: true,
	},
	{
		ID:          QuestionChestPain,
		Prompt:      "Are you experiencing chest pain? Please answer yes or no.",
		Kind:        AnswerYesNo,
		Validate:    validateYesNo,
		UrgentOnYes: true,
	},
	{
		ID:          QuestionMobility,
		Prompt:      "Are you able to walk without assistance? Please answer yes or no.",
		Kind:        AnswerYesNo,
		Validate:    validateYesNo,
		UrgentOnYes: false,
	},
}

// Catalog returns the ordered interview catalog. The slice is shared; callers
// must not mutate it.
func Catalog() []QuestionDef {
	return catalog
}

// TotalSteps is the number of questions in the interview.
func TotalSteps() int {
	return len(catalog)
}
