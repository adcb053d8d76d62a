package classify

import (
	"errors"
	"strings"
	"testing"
)

func TestClassify_KoreanTableSpec(t *testing.T) {
	req, err := Classify(DefaultTable(), "사용자 관리 시스템의 테이블 명세서")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if req.Type != TypeTableSpecification {
		t.Errorf("Type = %s, want TABLE_SPECIFICATION", req.Type)
	}
	if req.Subject != "사용자 관리 시스템" {
		t.Errorf("Subject = %q, want %q", req.Subject, "사용자 관리 시스템")
	}
}

func TestClassify_KoreanImpactAnalysisWithVerb(t *testing.T) {
	req, err := Classify(DefaultTable(), "주문 결제 모듈 영향도 분석서 작성해줘")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if req.Type != TypeImpactAnalysis {
		t.Errorf("Type = %s, want IMPACT_ANALYSIS", req.Type)
	}
	if req.Subject != "주문 결제 모듈" {
		t.Errorf("Subject = %q, want %q", req.Subject, "주문 결제 모듈")
	}
}

func TestClassify_EnglishRequest(t *testing.T) {
	req, err := Classify(DefaultTable(), "create an impact analysis for the payment gateway")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if req.Type != TypeImpactAnalysis {
		t.Errorf("Type = %s, want IMPACT_ANALYSIS", req.Type)
	}
	if req.Subject != "payment gateway" {
		t.Errorf("Subject = %q, want %q", req.Subject, "payment gateway")
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	req, err := Classify(DefaultTable(), "TABLE SPECIFICATION for user accounts")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if req.Type != TypeTableSpecification {
		t.Errorf("Type = %s", req.Type)
	}
	if req.Subject != "user accounts" {
		t.Errorf("Subject = %q", req.Subject)
	}
}

func TestClassify_TableOrderBreaksTies(t *testing.T) {
	// Both rules match; the earlier row must win even though the later
	// pattern is longer.
	table := []Rule{
		{Type: TypeInterfaceSpecification, Patterns: []string{"명세서"}},
		{Type: TypeTableSpecification, Patterns: []string{"테이블 명세서"}},
	}

	req, err := Classify(table, "재고 테이블 명세서")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if req.Type != TypeInterfaceSpecification {
		t.Errorf("Type = %s, want earlier table row to win", req.Type)
	}
	if strings.Contains(req.Subject, "명세서") {
		t.Errorf("Subject %q still contains the matched pattern", req.Subject)
	}
}

func TestClassify_NoMatch(t *testing.T) {
	_, err := Classify(DefaultTable(), "배포 파이프라인 정리 좀 해줘")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("err = %v, want ErrNoMatch", err)
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	if _, err := Classify(DefaultTable(), "   "); !errors.Is(err, ErrNoMatch) {
		t.Errorf("err = %v, want ErrNoMatch", err)
	}
}

func TestClassify_ShortResidueFallsBackToRawText(t *testing.T) {
	raw := "테이블 명세서"
	req, err := Classify(DefaultTable(), raw)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if req.Subject != raw {
		t.Errorf("Subject = %q, want raw text fallback %q", req.Subject, raw)
	}
}

func TestClassify_NeedsFindingsFlags(t *testing.T) {
	table := DefaultTable()

	impact, ok := RuleFor(table, TypeImpactAnalysis)
	if !ok || !impact.NeedsFindings {
		t.Error("IMPACT_ANALYSIS should require findings")
	}
	tableSpec, ok := RuleFor(table, TypeTableSpecification)
	if !ok || tableSpec.NeedsFindings {
		t.Error("TABLE_SPECIFICATION should not require findings")
	}
}

func TestClassify_AbbreviatedSynonym(t *testing.T) {
	req, err := Classify(DefaultTable(), "결제 API 명세서 만들어줘")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if req.Type != TypeInterfaceSpecification {
		t.Errorf("Type = %s, want INTERFACE_SPECIFICATION", req.Type)
	}
	if req.Subject != "결제" {
		t.Errorf("Subject = %q, want %q", req.Subject, "결제")
	}
}
