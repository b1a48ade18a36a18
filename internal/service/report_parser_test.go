package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"driftapp.dev/drift/common/llm"
	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/service"
)

const validReportJSON = `{
	"health": "on-track",
	"healthLabel": "On track",
	"progress": 55,
	"narrative": "Steady week with the migration landing.",
	"decisions": [],
	"drift": {"level": "none", "label": "No drift", "details": "Work matches the objective."},
	"blockers": [],
	"keyResults": [],
	"threads": [],
	"delivery": {"merged": 0, "inReview": 0, "blocked": 0, "created": 0, "velocity": "+0%", "velocityLabel": "+0% vs last week"},
	"sourceCounts": {"slack": 0, "linear": 0, "notion": 0}
}`

var _ = Describe("ReportParser", func() {
	var (
		llmClient *mockLLMClient
		parser    service.ReportParser
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		llmClient = &mockLLMClient{}
		parser = service.NewReportParser(llmClient, nil)
	})

	Context("with valid output", func() {
		It("parses without calling the model", func() {
			content, err := parser.Parse(ctx, validReportJSON)
			Expect(err).NotTo(HaveOccurred())
			Expect(content.Health).To(Equal(model.HealthOnTrack))
			Expect(content.Progress).To(Equal(55.0))
			Expect(llmClient.generateCalls).To(BeZero())
		})

		It("strips a surrounding code fence with a language tag", func() {
			content, err := parser.Parse(ctx, "```json\n"+validReportJSON+"\n```")
			Expect(err).NotTo(HaveOccurred())
			Expect(content.Narrative).To(ContainSubstring("migration landing"))
			Expect(llmClient.generateCalls).To(BeZero())
		})

		It("strips a bare code fence", func() {
			_, err := parser.Parse(ctx, "```\n"+validReportJSON+"\n```")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("with invalid output and a successful repair", func() {
		It("repairs malformed JSON in one round-trip", func() {
			llmClient.generateFn = func(ctx context.Context, system, user string) (*llm.GenerationResult, error) {
				Expect(user).To(ContainSubstring("not valid"))
				return &llm.GenerationResult{Content: validReportJSON}, nil
			}

			content, err := parser.Parse(ctx, "```json\n{not valid}\n```")
			Expect(err).NotTo(HaveOccurred())
			Expect(content.Health).To(Equal(model.HealthOnTrack))
			Expect(llmClient.generateCalls).To(Equal(1))
		})

		It("repairs output with a missing required field", func() {
			llmClient.generateFn = func(ctx context.Context, system, user string) (*llm.GenerationResult, error) {
				return &llm.GenerationResult{Content: validReportJSON}, nil
			}

			// Syntactically valid but no health field.
			_, err := parser.Parse(ctx, `{"progress": 10, "narrative": "x", "drift": {}, "delivery": {}, "decisions": [], "blockers": []}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(llmClient.generateCalls).To(Equal(1))
		})
	})

	Context("when repair also fails", func() {
		It("is terminal after exactly one repair attempt", func() {
			llmClient.generateFn = func(ctx context.Context, system, user string) (*llm.GenerationResult, error) {
				return &llm.GenerationResult{Content: "still not json"}, nil
			}

			_, err := parser.Parse(ctx, "{broken")
			Expect(err).To(MatchError(ContainSubstring("still invalid after repair")))
			Expect(llmClient.generateCalls).To(Equal(1))
		})

		It("surfaces a repair call failure", func() {
			llmClient.generateFn = func(ctx context.Context, system, user string) (*llm.GenerationResult, error) {
				return nil, errors.New("rate limited")
			}

			_, err := parser.Parse(ctx, "{broken")
			Expect(err).To(MatchError(ContainSubstring("repair call failed")))
		})
	})

	Context("schema type checks", func() {
		invalid := func(raw string) {
			llmClient.generateFn = func(ctx context.Context, system, user string) (*llm.GenerationResult, error) {
				return &llm.GenerationResult{Content: raw}, nil
			}
			_, err := parser.Parse(ctx, raw)
			Expect(err).To(HaveOccurred())
		}

		It("rejects a drift field that is not an object", func() {
			invalid(`{"health": "on-track", "progress": 1, "narrative": "x", "drift": "none", "delivery": {}, "decisions": [], "blockers": []}`)
		})

		It("rejects decisions that are not an array", func() {
			invalid(`{"health": "on-track", "progress": 1, "narrative": "x", "drift": {}, "delivery": {}, "decisions": {}, "blockers": []}`)
		})

		It("rejects an empty narrative", func() {
			invalid(`{"health": "on-track", "progress": 1, "narrative": "", "drift": {}, "delivery": {}, "decisions": [], "blockers": []}`)
		})

		It("accepts a progress of zero", func() {
			raw := `{"health": "off-track", "progress": 0, "narrative": "stalled", "drift": {"level": "high"}, "delivery": {}, "decisions": [], "blockers": []}`
			content, err := parser.Parse(ctx, raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(content.Progress).To(BeZero())
			Expect(llmClient.generateCalls).To(BeZero())
		})
	})
})
