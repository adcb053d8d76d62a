package assemble

import (
	"strings"
	"testing"

	"github.com/docforge/docforge/internal/backend"
	"github.com/docforge/docforge/internal/guidelines"
)

func TestAssemble_ScalarSubstitution(t *testing.T) {
	tpl := &backend.Template{Text: "# {{title}}\n\n작성자: {{author}}"}
	findings := map[string]any{"title": "주문 모듈 영향도 분석서", "author": "kim"}

	got := Assemble(tpl, guidelines.CombinedInstruction{}, findings)

	if !strings.Contains(got, "# 주문 모듈 영향도 분석서") {
		t.Errorf("title not substituted:\n%s", got)
	}
	if !strings.Contains(got, "작성자: kim") {
		t.Errorf("author not substituted:\n%s", got)
	}
}

func TestAssemble_ListRenderedNumbered(t *testing.T) {
	tpl := &backend.Template{Text: "영향 함수:\n{{related_functions}}"}
	findings := map[string]any{
		"related_functions": []any{"OrderService.Create", "PaymentGateway.Charge"},
	}

	got := Assemble(tpl, guidelines.CombinedInstruction{}, findings)

	if !strings.Contains(got, "1. OrderService.Create") {
		t.Errorf("first item not numbered:\n%s", got)
	}
	if !strings.Contains(got, "2. PaymentGateway.Charge") {
		t.Errorf("second item not numbered:\n%s", got)
	}
}

func TestAssemble_NestedObjectIndented(t *testing.T) {
	tpl := &backend.Template{Text: "{{schema}}"}
	findings := map[string]any{
		"schema": map[string]any{
			"table":   "orders",
			"columns": []any{"id", "status"},
		},
	}

	got := Assemble(tpl, guidelines.CombinedInstruction{}, findings)

	if !strings.Contains(got, "table: orders") {
		t.Errorf("scalar field missing:\n%s", got)
	}
	if !strings.Contains(got, "columns:\n") {
		t.Errorf("nested list not on its own block:\n%s", got)
	}
	if !strings.Contains(got, "1. id") {
		t.Errorf("nested list items not numbered:\n%s", got)
	}
}

func TestAssemble_MissingPlaceholderStandIn(t *testing.T) {
	tpl := &backend.Template{
		Text:      "담당자: {{owner}}\n배경: {{background}}",
		Variables: map[string]string{"owner": "문서 담당자 이름"},
	}

	got := Assemble(tpl, guidelines.CombinedInstruction{}, nil)

	if !strings.Contains(got, "[미입력: owner — 문서 담당자 이름]") {
		t.Errorf("hinted stand-in missing:\n%s", got)
	}
	if !strings.Contains(got, "[미입력: background]") {
		t.Errorf("bare stand-in missing:\n%s", got)
	}
	if strings.Contains(got, "{{") {
		t.Errorf("unresolved placeholder syntax left behind:\n%s", got)
	}
}

func TestAssemble_ExtraFindingsGetAnalysisSection(t *testing.T) {
	tpl := &backend.Template{Text: "# 영향도 분석서"}
	findings := map[string]any{
		"related_functions": []any{"A.Do", "B.Do"},
	}

	got := Assemble(tpl, guidelines.CombinedInstruction{}, findings)

	if !strings.Contains(got, "## 코드베이스 분석 결과") {
		t.Errorf("analysis section missing:\n%s", got)
	}
	if !strings.Contains(got, "### related_functions") {
		t.Errorf("finding heading missing:\n%s", got)
	}
	if !strings.Contains(got, "1. A.Do") {
		t.Errorf("finding content missing:\n%s", got)
	}
}

func TestAssemble_GuidelinesDelimitedNotInterleaved(t *testing.T) {
	tpl := &backend.Template{Text: "본문 {{x}} 끝"}
	combined := guidelines.CombinedInstruction{
		Role:          "시니어 DBA",
		Objective:     "표준 준수",
		Count:         2,
		TotalPriority: 140,
	}

	got := Assemble(tpl, combined, map[string]any{"x": "내용"})

	sep := strings.Index(got, "\n---\n")
	if sep < 0 {
		t.Fatalf("delimiter missing:\n%s", got)
	}
	body, tail := got[:sep], got[sep:]
	if strings.Contains(body, "시니어 DBA") {
		t.Error("guideline text interleaved into template body")
	}
	if !strings.Contains(tail, "## 작성 지침") || !strings.Contains(tail, "시니어 DBA") {
		t.Errorf("authoring section incomplete:\n%s", tail)
	}
	if !strings.Contains(tail, "2건") || !strings.Contains(tail, "140") {
		t.Errorf("count/priority summary missing:\n%s", tail)
	}
}

func TestAssemble_NoGuidelinesNoSection(t *testing.T) {
	tpl := &backend.Template{Text: "본문"}
	got := Assemble(tpl, guidelines.CombinedInstruction{}, nil)

	if strings.Contains(got, "작성 지침") {
		t.Errorf("authoring section rendered with zero guidelines:\n%s", got)
	}
}

func TestAssemble_PlaceholderWhitespaceTolerated(t *testing.T) {
	tpl := &backend.Template{Text: "{{ title }} / {{title}}"}
	got := Assemble(tpl, guidelines.CombinedInstruction{}, map[string]any{"title": "T"})

	if got[:len("T / T")] != "T / T" {
		t.Errorf("got %q", got)
	}
}
