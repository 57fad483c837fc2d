package httpserver

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

var waitlistInterests = map[string]bool{
	domain.InterestHiringRecruiter: true,
	domain.InterestHiringJobseeker: true,
	domain.InterestDating:          true,
	domain.InterestCofounder:       true,
	domain.InterestMastermind:      true,
	domain.InterestOther:           true,
}

func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New(validator.WithRequiredStructEnabled())
		// report json names so issue paths match the request body
		vld.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = vld.RegisterValidation("interest", func(fl validator.FieldLevel) bool {
			return waitlistInterests[fl.Field().String()]
		})
		_ = vld.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return domain.Category(fl.Field().String()).Valid()
		})
		vld.RegisterStructValidation(waitlistStructLevel, waitlistRequest{})
	})
	return vld
}

type analyzeRequest struct {
	ShareURL   string `json:"shareUrl" validate:"url"`
	Category   string `json:"category" validate:"category"`
	ManualText string `json:"manualText"`
}

type waitlistRequest struct {
	Email               string   `json:"email" validate:"email"`
	Interests           []string `json:"interests" validate:"min=1,dive,interest"`
	OtherInterestDetail string   `json:"other_interest_detail"`
	HasAIHistory        string   `json:"has_ai_history" validate:"omitempty,oneof=extensive some willing none"`
}

type publishPromptRequest struct {
	Key          string   `json:"key" validate:"required,max=100"`
	Content      string   `json:"content" validate:"required"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Type         string   `json:"type"`
	Placeholders []string `json:"placeholders"`
}

// waitlistStructLevel requires a description when "other" is picked.
func waitlistStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(waitlistRequest)
	for _, in := range req.Interests {
		if in == domain.InterestOther && strings.TrimSpace(req.OtherInterestDetail) == "" {
			sl.ReportError(req.OtherInterestDetail, "other_interest_detail", "OtherInterestDetail", "other_detail", "")
			return
		}
	}
}

// Issue is one field problem, shaped like the issues the landing page renders.
type Issue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

var issueMessages = map[string]string{
	"email":        "Invalid email address",
	"url":          "Invalid URL",
	"min":          "Please select at least one interest",
	"other_detail": "Please describe what you're interested in",
}

// validationIssues converts validator errors to Issues. Non-validation
// errors yield nil.
func validationIssues(err error) []Issue {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]Issue, 0, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		path := []string{field}
		if idx := strings.IndexByte(field, '['); idx > 0 {
			path = []string{field[:idx], strings.TrimSuffix(field[idx+1:], "]")}
		}
		msg, ok := issueMessages[fe.Tag()]
		if !ok {
			switch fe.Tag() {
			case "required":
				msg = "Required"
			case "oneof", "interest", "category":
				msg = "Invalid enum value"
			default:
				msg = "Invalid value"
			}
		}
		out = append(out, Issue{Path: path, Message: msg, Code: fe.Tag()})
	}
	return out
}
