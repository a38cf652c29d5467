package services

import (
	"bytes"
	"testing"
)

func workOrderFixture() *WorkOrderData {
	tree := sampleTree()
	p := submittedProposal()
	return &WorkOrderData{
		WorkOrderNumber: "WO-2026-0001",
		PlatformName:    "renovasi",
		ProjectName:     "Renovasi Rumah Tinggal",
		ProjectAddress:  "Jl. Melati No. 12, Bandung",
		IssueDate:       "2026-03-01",
		Owner:           WorkOrderParty{Name: "Budi Santoso", Email: "budi@example.com"},
		Vendor:          WorkOrderParty{Name: "CV Karya Mandiri", Email: "karya@example.com", Phone: "0812000111"},
		Rows:            BuildProposalExportRows(tree, p),
		SubmittedTotal:  p.TotalAmount,
		NegotiatedTotal: NegotiatedTotal(p),
		Notes:           "Pekerjaan dimulai paling lambat dua minggu setelah tanda tangan.",
	}
}

func TestGenerateWorkOrderPDF(t *testing.T) {
	raw, err := GenerateWorkOrderPDF(workOrderFixture())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("empty PDF")
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Errorf("output does not start with PDF magic bytes: %q", raw[:8])
	}
}

func TestGenerateWorkOrderPDF_MinimalData(t *testing.T) {
	data := &WorkOrderData{
		WorkOrderNumber: "WO-2026-0002",
		ProjectName:     "Proyek Tanpa Detail",
	}
	raw, err := GenerateWorkOrderPDF(data)
	if err != nil {
		t.Fatalf("minimal data should still render: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}

func TestJoinNonEmpty(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"all present", []string{"a", "b", "c"}, "a | b | c"},
		{"some empty", []string{"a", "", "c"}, "a | c"},
		{"all empty", []string{"", ""}, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinNonEmpty(tt.parts, " | "); got != tt.want {
				t.Errorf("joinNonEmpty(%v) = %q, want %q", tt.parts, got, tt.want)
			}
		})
	}
}
