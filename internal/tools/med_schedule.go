package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crystaldolphin/pillpal/internal/cron"
)

// DateFormat is the layout of the schedule's date field.
const DateFormat = "2006-01-02"

// MedScheduleArgs are the parameters accepted by get_med_schedule.
type MedScheduleArgs struct {
	UserID string `json:"userId,omitempty" jsonschema_description:"Identifier of the user whose schedule to fetch. Omit to use the current user."`
}

// Dose is one medication as it appears in a returned schedule.
type Dose struct {
	Name  string   `json:"name"`
	Dose  string   `json:"dose"`
	Times []string `json:"times"`
}

// MedSchedule is the record returned by get_med_schedule.
type MedSchedule struct {
	UserID      string `json:"userId"`
	Date        string `json:"date"`
	Medications []Dose `json:"medications"`
}

// prescription is a stored plan entry; When is a five-field cron expression.
type prescription struct {
	Name string
	Dose string
	When string
}

var defaultPlan = []prescription{
	{Name: "Multivitamin", Dose: "1 tablet", When: "0 9 * * *"},
}

// Mock data standing in for a prescriptions store.
var plans = map[string][]prescription{
	"u1": {
		{Name: "Metformin", Dose: "500 mg", When: "0 8,20 * * *"},
		{Name: "Lisinopril", Dose: "10 mg", When: "0 8 * * *"},
		{Name: "Vitamin D", Dose: "1000 IU", When: "30 9 * * 1"},
	},
	"u2": {
		{Name: "Levothyroxine", Dose: "50 mcg", When: "30 6 * * *"},
		{Name: "Atorvastatin", Dose: "20 mg", When: "0 21 * * *"},
	},
}

var medScheduleSchema = GenerateSchema[MedScheduleArgs]()

// MedScheduleTool returns today's medication schedule for a user.
type MedScheduleTool struct {
	now func() time.Time
}

// NewMedScheduleTool creates the tool. A nil clock means time.Now.
func NewMedScheduleTool(now func() time.Time) *MedScheduleTool {
	if now == nil {
		now = time.Now
	}
	return &MedScheduleTool{now: now}
}

func (t *MedScheduleTool) Name() string { return string(ToolMedSchedule) }
func (t *MedScheduleTool) Description() string {
	return "Get today's medication schedule for the user: each medication with its dose and the times it is due today."
}
func (t *MedScheduleTool) Parameters() json.RawMessage { return medScheduleSchema }

func (t *MedScheduleTool) Execute(_ context.Context, args map[string]any) (any, error) {
	in, err := decodeArgs[MedScheduleArgs](args)
	if err != nil {
		in = MedScheduleArgs{}
	}
	return t.Lookup(in.UserID)
}

// Lookup builds the schedule for userID on the current day. Unknown or empty
// ids get the default plan.
func (t *MedScheduleTool) Lookup(userID string) (MedSchedule, error) {
	today := t.now()

	plan, ok := plans[userID]
	if !ok {
		plan = defaultPlan
	}

	meds := make([]Dose, 0, len(plan))
	for _, p := range plan {
		times, err := cron.TimesOn(p.When, today)
		if err != nil {
			return MedSchedule{}, fmt.Errorf("%s: %w", p.Name, err)
		}
		if len(times) == 0 {
			continue
		}
		meds = append(meds, Dose{Name: p.Name, Dose: p.Dose, Times: times})
	}

	return MedSchedule{
		UserID:      userID,
		Date:        today.Format(DateFormat),
		Medications: meds,
	}, nil
}
