package annotator_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"

	"github.com/JohnPlummer/bws-annotator/annotator"
)

var _ = Describe("Prompts", func() {
	const item = "1: deuda (schuld)\t2: mercado (markt)\t3: perro (hond)\t4: precio (prijs)"

	Describe("RenderPrompt", func() {
		It("should fill the system text with the domain", func() {
			p, err := annotator.RenderPrompt(annotator.ItemTypeBWSTuples, "economics", item)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.System).To(Equal(
				"You are an expert in designing courses of Spanish as a foreign language for native speakers of Dutch. " +
					"You are currently preparing a vocabulary class for a group of advanced learners on economics as the specific topic. " +
					"More specifically, you want to create a vocabulary list in which words are ranked based on how typical they are of the domain of economics."))
		})

		It("should render the full user text", func() {
			p, err := annotator.RenderPrompt(annotator.ItemTypeBWSTuples, "law", item)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.User).To(Equal(
				"Here is set of four Spanish words and their translations to Dutch:\n\n" +
					item + "\n\n" +
					"Give the 'word_ID' of the **most typical** word of the domain of law and the 'word_ID' of the word that is **least typical** of the domain of law. " +
					"In case a word has multiple meanings, base your judgement on the meaning that has the strongest relation with the domain of law and disregard all other meanings. " +
					"Respond two word IDs, separated by means of a semicolon: first the 'word_ID' of the word that is **most typical** of the domain of law and then the 'word_ID' of the word that is **least typical** of the domain of law. " +
					"Do not include any introduction, summary, or explanation."))
		})

		It("should embed the item verbatim between blank lines", func() {
			p, err := annotator.RenderPrompt(annotator.ItemTypeBWSTuples, "law", item)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.User).To(HavePrefix("Here is set of four Spanish words and their translations to Dutch:\n\n" + item + "\n\nGive the 'word_ID'"))
			Expect(p.User).To(HaveSuffix("Do not include any introduction, summary, or explanation."))
		})

		It("should mention the domain in every instruction", func() {
			p, err := annotator.RenderPrompt(annotator.ItemTypeBWSTuples, "law", item)
			Expect(err).ToNot(HaveOccurred())
			Expect(strings.Count(p.User, "the domain of law")).To(Equal(5))
			Expect(p.User).To(ContainSubstring("semicolon"))
			Expect(p.User).ToNot(ContainSubstring("{{"))
		})

		It("should not expand template syntax inside the item", func() {
			p, err := annotator.RenderPrompt(annotator.ItemTypeBWSTuples, "health", "{{.Domain}}")
			Expect(err).ToNot(HaveOccurred())
			Expect(p.User).To(ContainSubstring("\n\n{{.Domain}}\n\n"))
		})

		It("should reject unsupported item types", func() {
			_, err := annotator.RenderPrompt("word-pairs", "law", item)
			Expect(err).To(MatchError(annotator.ErrUnsupportedItemType))
			Expect(err.Error()).To(ContainSubstring("BWS-tuples"))
		})
	})

	Describe("SupportedItemTypes", func() {
		It("should only support BWS tuples", func() {
			Expect(annotator.SupportedItemTypes()).To(Equal([]string{"BWS-tuples"}))
		})
	})

	Describe("BuildPrompt", func() {
		var flat, parts annotator.ModelSpec

		BeforeEach(func() {
			var err error
			flat, err = annotator.ResolveModel("Llama-3.1-8B")
			Expect(err).ToNot(HaveOccurred())
			parts, err = annotator.ResolveModel("Gemma-3-4b")
			Expect(err).ToNot(HaveOccurred())
		})

		It("should send flat string content for flat models", func() {
			msgs, err := annotator.BuildPrompt(flat, annotator.ItemTypeBWSTuples, "migration", item)
			Expect(err).ToNot(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal(openai.ChatMessageRoleSystem))
			Expect(msgs[1].Role).To(Equal(openai.ChatMessageRoleUser))
			for _, msg := range msgs {
				Expect(msg.Content).ToNot(BeEmpty())
				Expect(msg.MultiContent).To(BeNil())
			}
		})

		It("should send a single text block for content-part models", func() {
			msgs, err := annotator.BuildPrompt(parts, annotator.ItemTypeBWSTuples, "migration", item)
			Expect(err).ToNot(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal(openai.ChatMessageRoleSystem))
			Expect(msgs[1].Role).To(Equal(openai.ChatMessageRoleUser))
			for _, msg := range msgs {
				Expect(msg.Content).To(BeEmpty())
				Expect(msg.MultiContent).To(HaveLen(1))
				Expect(msg.MultiContent[0].Type).To(Equal(openai.ChatMessagePartTypeText))
			}
		})

		It("should carry identical text for both formats", func() {
			flatMsgs, err := annotator.BuildPrompt(flat, annotator.ItemTypeBWSTuples, "health", item)
			Expect(err).ToNot(HaveOccurred())
			partMsgs, err := annotator.BuildPrompt(parts, annotator.ItemTypeBWSTuples, "health", item)
			Expect(err).ToNot(HaveOccurred())

			for i := range flatMsgs {
				Expect(annotator.MessageText(partMsgs[i])).To(Equal(annotator.MessageText(flatMsgs[i])))
			}
		})

		It("should fail before building messages for unsupported item types", func() {
			msgs, err := annotator.BuildPrompt(flat, "triples", "health", item)
			Expect(err).To(MatchError(annotator.ErrUnsupportedItemType))
			Expect(msgs).To(BeNil())
		})
	})
})

var _ = Describe("Models", func() {
	It("should list the supported names in choice order", func() {
		Expect(annotator.ModelNames()).To(Equal([]string{
			"EuroLLM", "Gemma-3-1b", "Gemma-3-4b", "Llama-3.1-8B", "Llama-3.2-3B", "Mistral",
		}))
	})

	DescribeTable("ResolveModel",
		func(name, modelID string, format annotator.MessageFormat) {
			spec, err := annotator.ResolveModel(name)
			Expect(err).ToNot(HaveOccurred())
			Expect(spec.Name).To(Equal(name))
			Expect(spec.ModelID).To(Equal(modelID))
			Expect(spec.Format).To(Equal(format))
		},
		Entry(nil, "EuroLLM", "utter-project/EuroLLM-9B-Instruct", annotator.FormatFlat),
		Entry(nil, "Gemma-3-1b", "google/gemma-3-1b-it", annotator.FormatContentParts),
		Entry(nil, "Gemma-3-4b", "google/gemma-3-4b-it", annotator.FormatContentParts),
		Entry(nil, "Llama-3.1-8B", "meta-llama/Meta-Llama-3.1-8B-Instruct", annotator.FormatFlat),
		Entry(nil, "Llama-3.2-3B", "meta-llama/Llama-3.2-3B-Instruct", annotator.FormatFlat),
		Entry(nil, "Mistral", "mistralai/Ministral-8B-Instruct-2410", annotator.FormatFlat),
	)

	It("should reject unknown names", func() {
		_, err := annotator.ResolveModel("GPT-2")
		Expect(err).To(MatchError(annotator.ErrUnknownModel))
	})

	It("should be case sensitive", func() {
		_, err := annotator.ResolveModel("mistral")
		Expect(err).To(MatchError(annotator.ErrUnknownModel))
	})

	It("should name message formats", func() {
		Expect(annotator.FormatFlat.String()).To(Equal("flat"))
		Expect(annotator.FormatContentParts.String()).To(Equal("content_parts"))
	})
})
