package handler

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"roster/pkg/dates"
)

// dateLayouts are the accepted start/end date formats. A plain date is the
// canonical form; RFC3339 timestamps are tolerated for clients that
// serialize whole dates as midnight instants.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDay(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			if layout == time.RFC3339 {
				return dates.ToDay(t), nil
			}
			return dates.AtMidnight(t), nil
		}
	}
	return time.Time{}, errors.New("must be a date in YYYY-MM-DD form")
}

func isDay(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil // covered by Required
	}
	_, err := parseDay(raw)
	return err
}

type createPersonRequest struct {
	Name string `json:"name"`
}

func (r createPersonRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

type renamePersonRequest struct {
	Name string `json:"name"`
}

func (r renamePersonRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

type insertDutyRequest struct {
	Rank      string `json:"rank"`
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
}

func (r insertDutyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rank, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.StartDate, validation.Required, validation.By(isDay)),
	)
}

type updateDutyRequest struct {
	Rank      string  `json:"rank"`
	Title     string  `json:"title"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

func (r updateDutyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rank, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.StartDate, validation.Required, validation.By(isDay)),
		validation.Field(&r.EndDate, validation.By(func(v any) error {
			switch x := v.(type) {
			case string:
				return isDay(x)
			case *string:
				if x == nil {
					return nil
				}
				return isDay(*x)
			}
			return nil
		})),
	)
}
