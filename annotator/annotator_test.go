package annotator_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"

	"github.com/JohnPlummer/bws-annotator/annotator"
)

var _ = Describe("Annotator", func() {
	var (
		mockAPI *mockChatClient
		spec    annotator.ModelSpec
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockAPI = &mockChatClient{replies: []string{"3; 1"}}

		var err error
		spec, err = annotator.ResolveModel("Mistral")
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("BuildRequest", func() {
		It("should target the resolved model with the default token cap", func() {
			a := annotator.NewAnnotator(mockAPI, spec)
			req, err := a.BuildRequest("law", "tuple")
			Expect(err).ToNot(HaveOccurred())
			Expect(req.Model).To(Equal("mistralai/Ministral-8B-Instruct-2410"))
			Expect(req.MaxTokens).To(Equal(16))
			Expect(req.Messages).To(HaveLen(2))
		})

		It("should honour a custom token cap", func() {
			a := annotator.NewAnnotator(mockAPI, spec, annotator.WithMaxNewTokens(4))
			req, err := a.BuildRequest("law", "tuple")
			Expect(err).ToNot(HaveOccurred())
			Expect(req.MaxTokens).To(Equal(4))
		})
	})

	Describe("Annotate", func() {
		It("should parse a well-formed reply", func() {
			a := annotator.NewAnnotator(mockAPI, spec)
			ann, err := a.Annotate(ctx, "economics", "tuple")
			Expect(err).ToNot(HaveOccurred())
			Expect(*ann.Best).To(Equal(3))
			Expect(*ann.Worst).To(Equal(1))
			Expect(ann.Raw).To(Equal("3; 1"))
			Expect(mockAPI.calls()).To(Equal(1))
		})

		It("should send the item text in the user message", func() {
			a := annotator.NewAnnotator(mockAPI, spec)
			_, err := a.Annotate(ctx, "economics", "1: deuda (schuld)")
			Expect(err).ToNot(HaveOccurred())
			Expect(annotator.MessageText(mockAPI.requests[0].Messages[1])).To(ContainSubstring("\n\n1: deuda (schuld)\n\n"))
		})

		It("should not fail on an unparseable reply", func() {
			mockAPI.replies = []string{"The most typical word is deuda."}
			a := annotator.NewAnnotator(mockAPI, spec)

			ann, err := a.Annotate(ctx, "economics", "tuple")
			Expect(err).ToNot(HaveOccurred())
			Expect(ann.Parsed()).To(BeFalse())
			Expect(ann.Raw).To(Equal("The most typical word is deuda."))
			Expect(mockAPI.calls()).To(Equal(1))
		})

		It("should return backend errors", func() {
			apiErr := &openai.APIError{HTTPStatusCode: 503, Message: "model loading"}
			mockAPI.errors = []error{apiErr}
			a := annotator.NewAnnotator(mockAPI, spec)

			_, err := a.Annotate(ctx, "economics", "tuple")
			Expect(err).To(MatchError(apiErr))
		})

		It("should fail when the backend returns no choices", func() {
			mockAPI.emptyChoices = true
			a := annotator.NewAnnotator(mockAPI, spec)

			_, err := a.Annotate(ctx, "economics", "tuple")
			Expect(err).To(MatchError(annotator.ErrEmptyResponse))
		})

		It("should reject unsupported item types before calling the model", func() {
			a := annotator.NewAnnotator(mockAPI, spec, annotator.WithItemType("pairs"))

			_, err := a.Annotate(ctx, "economics", "tuple")
			Expect(err).To(MatchError(annotator.ErrUnsupportedItemType))
			Expect(mockAPI.calls()).To(Equal(0))
		})
	})
})
