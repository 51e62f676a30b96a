package db

import (
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/platform/apierror"
)

func TestQuery_Basic(t *testing.T) {
	clinicID := uuid.New()
	q := NewQuery("patients", "id, first_name").
		Where("clinic_id = ?", clinicID).
		Search("ann", "first_name", "last_name").
		OrderBy("last_name ASC")

	wantCount := "SELECT COUNT(*) FROM patients WHERE 1=1 AND clinic_id = $1 AND (first_name ILIKE $2 OR last_name ILIKE $2)"
	if got := q.CountSQL(); got != wantCount {
		t.Errorf("count sql:\n got %s\nwant %s", got, wantCount)
	}
	wantData := "SELECT id, first_name FROM patients WHERE 1=1 AND clinic_id = $1 AND (first_name ILIKE $2 OR last_name ILIKE $2) ORDER BY last_name ASC LIMIT $3 OFFSET $4"
	if got := q.DataSQL(); got != wantData {
		t.Errorf("data sql:\n got %s\nwant %s", got, wantData)
	}

	args := q.DataArgs(15, 30)
	if len(args) != 4 || args[0] != clinicID || args[1] != "%ann%" || args[2] != 15 || args[3] != 30 {
		t.Errorf("unexpected args %v", args)
	}
	if len(q.CountArgs()) != 2 {
		t.Errorf("count args must not include limit/offset, got %v", q.CountArgs())
	}
}

func TestQuery_SearchEscapesWildcards(t *testing.T) {
	q := NewQuery("t", "id").Search("50%_off")
	if len(q.CountArgs()) != 0 {
		t.Fatal("search without columns must be ignored")
	}
	q = NewQuery("t", "id").Search("50%_off", "name")
	if q.CountArgs()[0] != `%50\%\_off%` {
		t.Errorf("unexpected pattern %v", q.CountArgs()[0])
	}
}

func TestQuery_Filter(t *testing.T) {
	filters := map[string]Filter{
		"status":     {Type: FilterEqual, Column: "status"},
		"patient_id": {Type: FilterUUID, Column: "patient_id"},
		"abnormal":   {Type: FilterBool, Column: "is_abnormal"},
		"from":       {Type: FilterDateFrom, Column: "scheduled_at"},
		"to":         {Type: FilterDateTo, Column: "scheduled_at"},
	}

	q := NewQuery("t", "id")
	err := q.Filter(url.Values{"status": {"completed"}, "abnormal": {"true"}, "ignored": {"x"}}, filters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.CountArgs()) != 2 {
		t.Errorf("expected 2 args, got %v", q.CountArgs())
	}

	q = NewQuery("t", "id")
	err = q.Filter(url.Values{"patient_id": {"nope"}, "from": {"01/02/2024"}}, filters)
	if apierror.KindOf(err) != apierror.KindValidationFailed {
		t.Fatalf("expected validation error, got %v", err)
	}
	apiErr := err.(*apierror.Error)
	if len(apiErr.Fields["patient_id"]) != 1 || len(apiErr.Fields["from"]) != 1 {
		t.Errorf("unexpected fields %v", apiErr.Fields)
	}
}
