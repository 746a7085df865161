package scene

import (
	"errors"

	"pulsepath-go/internal/models"
	"pulsepath-go/internal/utils"
)

// FieldKind distinguishes typed fields from option pickers.
type FieldKind int

const (
	TextField FieldKind = iota
	NumberField
	ChoiceField
)

// Field is one line of the setup form.
type Field struct {
	Label   string
	Kind    FieldKind
	Value   string
	Options []string
	choice  int
}

// Form is the participant setup screen.
type Form struct {
	Fields []*Field
	Focus  int
	Err    error
}

const (
	fieldID = iota
	fieldAge
	fieldGender
	fieldCondition
	fieldHeartRate
)

// NewForm returns an empty form. Choice fields start unset so the participant
// has to pick a value.
func NewForm() *Form {
	genders := []string{string(models.GenderMale), string(models.GenderFemale)}
	conds := make([]string, 0, len(models.Conditions))
	for _, c := range models.Conditions {
		conds = append(conds, string(c))
	}
	return &Form{Fields: []*Field{
		fieldID:        {Label: "Participant ID", Kind: TextField},
		fieldAge:       {Label: "Age", Kind: NumberField},
		fieldGender:    {Label: "Gender", Kind: ChoiceField, Options: genders, choice: -1},
		fieldCondition: {Label: "Condition", Kind: ChoiceField, Options: conds, choice: -1},
		fieldHeartRate: {Label: "Heart rate (bpm)", Kind: NumberField},
	}}
}

// Handle applies one frame of keyboard input and reports whether Enter was
// pressed.
func (f *Form) Handle(in Input) (submit bool) {
	switch {
	case in.Pressed(KeyTab), in.Pressed(KeyDown):
		f.Focus = (f.Focus + 1) % len(f.Fields)
	case in.Pressed(KeyUp):
		f.Focus = (f.Focus + len(f.Fields) - 1) % len(f.Fields)
	}

	field := f.Fields[f.Focus]
	if field.Kind == ChoiceField {
		switch {
		case in.Pressed(KeyRight):
			field.cycle(1)
		case in.Pressed(KeyLeft):
			field.cycle(-1)
		}
	} else {
		field.typeRunes(in)
	}
	return in.Pressed(KeyEnter)
}

// cycle moves through the options. From the unset state Right picks the
// first option and Left the last.
func (fd *Field) cycle(step int) {
	n := len(fd.Options)
	switch {
	case fd.choice < 0 && step > 0:
		fd.choice = 0
	case fd.choice < 0:
		fd.choice = n - 1
	default:
		fd.choice = (fd.choice + step + n) % n
	}
	fd.Value = fd.Options[fd.choice]
}

func (fd *Field) typeRunes(in Input) {
	if in.Pressed(KeyBackspace) && fd.Value != "" {
		r := []rune(fd.Value)
		fd.Value = string(r[:len(r)-1])
	}
	for _, r := range in.Chars {
		if len(fd.Value) >= utils.MaxFieldLength || !utils.AcceptsRune(fd.Kind == NumberField, r) {
			continue
		}
		fd.Value += string(r)
	}
}

// Profile parses the form fields. The result still has to pass
// experiment.ValidateProfile.
func (f *Form) Profile() (models.ParticipantProfile, error) {
	var errs []error
	age, err := utils.ParsePositiveInt("age", f.Fields[fieldAge].Value)
	errs = append(errs, err)
	hr, err := utils.ParsePositiveInt("heart rate before", f.Fields[fieldHeartRate].Value)
	errs = append(errs, err)
	if !utils.IsValidParticipantID(f.Fields[fieldID].Value) {
		errs = append(errs, errors.New("participant id is required"))
	}
	if f.Fields[fieldGender].Value == "" {
		errs = append(errs, errors.New("gender is required"))
	}
	if f.Fields[fieldCondition].Value == "" {
		errs = append(errs, errors.New("condition is required"))
	}

	p := models.ParticipantProfile{
		ID:              f.Fields[fieldID].Value,
		Age:             age,
		Gender:          models.Gender(f.Fields[fieldGender].Value),
		Condition:       models.Condition(f.Fields[fieldCondition].Value),
		HeartRateBefore: hr,
	}
	return p, errors.Join(errs...)
}
