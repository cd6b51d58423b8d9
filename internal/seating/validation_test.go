package seating

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "+54 (11) 555-0101", want: "+54115550101"},
		{in: "+5411555.0101", want: "+54115550101"},
		{in: "  5550101 ", want: "5550101"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateReservationCreateMissingFields(t *testing.T) {
	_, err := ValidateReservationCreate(ReservationCreateRequest{})

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if e.Kind != KindMissingField {
		t.Errorf("Kind = %s, want %s", e.Kind, KindMissingField)
	}

	want := []string{"table_id", "date", "start", "name"}
	if len(e.Fields) != len(want) {
		t.Fatalf("fields = %+v, want %v", e.Fields, want)
	}
	for i, f := range e.Fields {
		if f.Field != want[i] || f.Code != "required" {
			t.Errorf("field %d = %+v, want %s required", i, f, want[i])
		}
	}
	if !IsKind(err, KindValidation) {
		t.Error("missing fields should also count as validation errors")
	}
}

func TestValidateReservationCreateCollectsFormatErrors(t *testing.T) {
	_, err := ValidateReservationCreate(ReservationCreateRequest{
		TableID:   1,
		Date:      "2025-02-30",
		Start:     "19:00",
		Name:      "Ana",
		Email:     "ana.example.com",
		PartySize: -2,
	})

	var e *Error
	if !errors.As(err, &e) || e.Kind != KindValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	fields := map[string]bool{}
	for _, f := range e.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"date", "email", "party_size"} {
		if !fields[want] {
			t.Errorf("missing field error for %s in %+v", want, e.Fields)
		}
	}
}

func TestValidateReservationCreateDefaults(t *testing.T) {
	r, err := ValidateReservationCreate(ReservationCreateRequest{
		TableID: 3,
		Date:    "2026-01-15",
		Start:   "19:00",
		Name:    "  Ana  ",
		Phone:   "555 0101",
	})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if r.Name != "Ana" || r.Phone != "5550101" || r.PartySize != DefaultPartySize {
		t.Errorf("reservation = %+v", r)
	}
	if r.Start != NewClockTime(19, 0) || r.End != NewClockTime(21, 0) {
		t.Errorf("window = %s-%s, want 19:00-21:00", r.Start, r.End)
	}
	if r.ID != 0 {
		t.Error("validation must not assign ids")
	}
}

func TestValidateTableCreate(t *testing.T) {
	tests := []struct {
		name     string
		req      TableCreateRequest
		wantKind ErrorKind
	}{
		{name: "valid", req: TableCreateRequest{Number: "1", Capacity: 2}},
		{name: "blankNumber", req: TableCreateRequest{Number: "  ", Capacity: 2}, wantKind: KindMissingField},
		{name: "negativeCapacity", req: TableCreateRequest{Number: "1", Capacity: -1}, wantKind: KindValidation},
		{name: "badState", req: TableCreateRequest{Number: "1", Capacity: 2, State: "ocupada"}, wantKind: KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTableCreate(tt.req)
			if tt.wantKind == "" {
				if err != nil {
					t.Errorf("error = %v", err)
				}
				return
			}
			if !IsKind(err, tt.wantKind) {
				t.Errorf("error = %v, want kind %s", err, tt.wantKind)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := missingFields("name", "phone")
	if got := err.Error(); got != "missing required fields: name, phone" {
		t.Errorf("Error() = %q", got)
	}
	if got := notFound("table", 4).Error(); got != "table 4 not found" {
		t.Errorf("Error() = %q", got)
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Error("plain errors have no kind")
	}
}
