package seating

import (
	"strings"

	"github.com/appetiteclub/seating/pkg/enums/reservationstatus"
	"github.com/appetiteclub/seating/pkg/enums/tablestate"
)

var phoneNoise = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// NormalizePhone strips the separators people type into phone numbers so that
// "+54 (11) 555-0101" and "+5411555.0101" compare equal.
func NormalizePhone(phone string) string {
	return phoneNoise.Replace(strings.TrimSpace(phone))
}

func ValidateTableCreate(req TableCreateRequest) error {
	if strings.TrimSpace(req.Number) == "" {
		return missingFields("number")
	}

	var fields []FieldError
	if req.Capacity <= 0 {
		fields = append(fields, invalidField("capacity", "capacity must be greater than 0"))
	}
	if len(fields) > 0 {
		return invalid(fields...)
	}

	if req.State != "" && tablestate.ByName(req.State) == nil {
		return invalidValue("state", req.State, tablestate.Names())
	}
	return nil
}

func validateTableState(state string) error {
	if tablestate.ByName(state) == nil {
		return invalidValue("state", state, tablestate.Names())
	}
	return nil
}

func validateReservationState(state string) error {
	if reservationstatus.ByName(state) == nil {
		return invalidValue("state", state, reservationstatus.Names())
	}
	return nil
}

// ValidateReservationCreate checks a booking request and returns the
// reservation it describes, with defaults applied and no id assigned.
func ValidateReservationCreate(req ReservationCreateRequest) (*Reservation, error) {
	var missing []string
	if req.TableID == 0 {
		missing = append(missing, "table_id")
	}
	if strings.TrimSpace(req.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(req.Start) == "" {
		missing = append(missing, "start")
	}
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}

	var fields []FieldError
	if !validDate(req.Date) {
		fields = append(fields, invalidField("date", "date must use the YYYY-MM-DD format"))
	}
	if req.PartySize < 0 {
		fields = append(fields, invalidField("party_size", "party_size must be greater than 0"))
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		fields = append(fields, invalidField("email", "email is not valid"))
	}

	start, end, windowFields := parseWindow(req.Start, req.End)
	fields = append(fields, windowFields...)
	if len(fields) > 0 {
		return nil, invalid(fields...)
	}

	partySize := req.PartySize
	if partySize == 0 {
		partySize = DefaultPartySize
	}

	return &Reservation{
		TableID:   req.TableID,
		Date:      req.Date,
		Start:     start,
		End:       end,
		PartySize: partySize,
		Name:      strings.TrimSpace(req.Name),
		Phone:     NormalizePhone(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		State:     reservationstatus.Statuses.Pending.Name,
		Occasion:  req.Occasion,
		Notes:     req.Notes,
		ClientID:  req.ClientID,
	}, nil
}

// parseWindow parses a start and an optional end. An empty end defaults to
// start plus the standard reservation duration.
func parseWindow(startStr, endStr string) (ClockTime, ClockTime, []FieldError) {
	start, err := ParseClockTime(startStr)
	if err != nil {
		return 0, 0, []FieldError{invalidField("start", "start must use the HH:MM format")}
	}
	if start >= EndOfDay {
		return 0, 0, []FieldError{invalidField("start", "start must be before 24:00")}
	}

	end := start.Add(DefaultReservationDuration)
	if strings.TrimSpace(endStr) != "" {
		end, err = ParseClockTime(endStr)
		if err != nil {
			return 0, 0, []FieldError{invalidField("end", "end must use the HH:MM format")}
		}
	}

	return start, end, checkWindow(start, end)
}

func checkWindow(start, end ClockTime) []FieldError {
	if end <= start {
		return []FieldError{invalidField("end", "end must be after start")}
	}
	if end > EndOfDay {
		return []FieldError{invalidField("end", "reservations may not cross midnight")}
	}
	return nil
}

func ValidateQueueJoin(req QueueJoinRequest) error {
	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if NormalizePhone(req.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return missingFields(missing...)
	}

	if req.PartySize < 0 {
		return invalid(invalidField("party_size", "party_size must be greater than 0"))
	}
	return nil
}

func validateAvailabilityQuery(q AvailabilityQuery) error {
	if strings.TrimSpace(q.Date) == "" {
		return missingFields("date")
	}
	if !validDate(q.Date) {
		return invalid(invalidField("date", "date must use the YYYY-MM-DD format"))
	}
	if q.PartySize < 0 {
		return invalid(invalidField("party_size", "party_size must be greater than 0"))
	}
	return nil
}
