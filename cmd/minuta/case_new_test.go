package main

import "testing"

func TestParseCaseBrief(t *testing.T) {
	input := `---
case_number: 0001234-56.2026.5.03.0001
court: 3a Vara do Trabalho de Belo Horizonte
claimant: Maria da Silva
respondent: Empresa XYZ Ltda
reporter_notes: audiencia una realizada
---

# Pedidos

- horas extras
- adicional de insalubridade
* dano moral

texto corrido que nao vira topico
`
	info, topics, err := parseCaseBrief(input)
	if err != nil {
		t.Fatalf("parse brief: %v", err)
	}
	if info.CaseNumber != "0001234-56.2026.5.03.0001" {
		t.Fatalf("unexpected case number: %q", info.CaseNumber)
	}
	if info.Court != "3a Vara do Trabalho de Belo Horizonte" {
		t.Fatalf("unexpected court: %q", info.Court)
	}
	if info.Claimant != "Maria da Silva" || info.Respondent != "Empresa XYZ Ltda" {
		t.Fatalf("unexpected parties: %q / %q", info.Claimant, info.Respondent)
	}
	if info.ReporterNotes != "audiencia una realizada" {
		t.Fatalf("unexpected notes: %q", info.ReporterNotes)
	}

	want := []string{"horas extras", "adicional de insalubridade", "dano moral"}
	if len(topics) != len(want) {
		t.Fatalf("expected %d topics, got %v", len(want), topics)
	}
	for i, title := range want {
		if topics[i] != title {
			t.Fatalf("topic %d: expected %q, got %q", i, title, topics[i])
		}
	}
}

func TestParseCaseBriefWithoutFrontMatter(t *testing.T) {
	info, topics, err := parseCaseBrief("- unico pedido\n")
	if err != nil {
		t.Fatalf("parse brief: %v", err)
	}
	if info.CaseNumber != "" {
		t.Fatalf("expected empty case info, got %+v", info)
	}
	if len(topics) != 1 || topics[0] != "unico pedido" {
		t.Fatalf("expected single topic, got %v", topics)
	}
}

func TestParseCaseBriefUnclosedFrontMatter(t *testing.T) {
	if _, _, err := parseCaseBrief("---\ncase_number: 123\n"); err == nil {
		t.Fatal("expected error for unclosed front matter")
	}
}
