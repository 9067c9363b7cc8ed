package sources

import "testing"

func TestParseFIIDIIRows(t *testing.T) {
	rows := []fiidiiRow{
		{
			Category:  "FII/FPI *",
			Date:      "21-Aug-2026",
			BuyValue:  "12,345.67",
			SellValue: "11,000.50",
			NetValue:  "1,345.17",
		},
		{
			Category:  "DII **",
			Date:      "21-Aug-2026",
			BuyValue:  "9,800.00",
			SellValue: "10,200.25",
			NetValue:  "-400.25",
		},
	}

	rec, err := parseFIIDIIRows(rows)
	if err != nil {
		t.Fatalf("parseFIIDIIRows() failed: %v", err)
	}

	if rec.ReportedDate == nil || *rec.ReportedDate != "2026-08-21" {
		t.Errorf("ReportedDate = %v, want 2026-08-21", rec.ReportedDate)
	}
	if rec.FIINet == nil || *rec.FIINet != 1345.17 {
		t.Errorf("FIINet = %v, want 1345.17", rec.FIINet)
	}
	if rec.FIIBuy == nil || *rec.FIIBuy != 12345.67 {
		t.Errorf("FIIBuy = %v, want 12345.67", rec.FIIBuy)
	}
	if rec.DIINet == nil || *rec.DIINet != -400.25 {
		t.Errorf("DIINet = %v, want -400.25", rec.DIINet)
	}
}

func TestParseFIIDIIRowsNoFIIRow(t *testing.T) {
	rows := []fiidiiRow{
		{Category: "DII **", Date: "21-Aug-2026", NetValue: "100.00"},
	}

	if _, err := parseFIIDIIRows(rows); err == nil {
		t.Error("expected error when the FII row is missing")
	}
}

func TestParseFIIDIIRowsIgnoresUnknownCategories(t *testing.T) {
	rows := []fiidiiRow{
		{Category: "Pro *", Date: "21-Aug-2026", NetValue: "50.00"},
		{Category: "FII/FPI *", Date: "21-Aug-2026", NetValue: "200.00"},
	}

	rec, err := parseFIIDIIRows(rows)
	if err != nil {
		t.Fatalf("parseFIIDIIRows() failed: %v", err)
	}
	if *rec.FIINet != 200.00 {
		t.Errorf("FIINet = %v, want 200.00", *rec.FIINet)
	}
	if rec.DIINet != nil {
		t.Error("DIINet should be nil without a DII row")
	}
}

func TestParseCommaFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234.56", 1234.56, true},
		{"-2,500.00", -2500.00, true},
		{"0.00", 0.00, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{"n/a", 0, false},
	}

	for _, tt := range tests {
		got := parseCommaFloat(tt.in)
		if tt.ok {
			if got == nil {
				t.Errorf("parseCommaFloat(%q) = nil, want %v", tt.in, tt.want)
			} else if *got != tt.want {
				t.Errorf("parseCommaFloat(%q) = %v, want %v", tt.in, *got, tt.want)
			}
		} else if got != nil {
			t.Errorf("parseCommaFloat(%q) = %v, want nil", tt.in, *got)
		}
	}
}
