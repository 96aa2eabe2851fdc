package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server *ghttp.Server
		path   string
		text   string
		err    error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		path = filepath.Join(GinkgoT().TempDir(), "receipt.png")
		Expect(os.WriteFile(path, pngImage(), 0o644)).To(Succeed())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		engine, factoryErr := OllamaFactory(server.URL()+"/", "llava")(context.Background())
		Expect(factoryErr).NotTo(HaveOccurred())
		defer engine.Close()
		text, err = engine.Recognize(context.Background(), path)
	})

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					var req ollamaChatRequest
					Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
					Expect(req.Model).To(Equal("llava"))
					Expect(req.Stream).To(BeFalse())
					Expect(req.Messages).To(HaveLen(2))
					Expect(req.Messages[1].Images).To(HaveLen(1))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: "```\nCorner Books\nTotal $12.00\n```"},
					Done:    true,
				}),
			))
		})

		It("returns the transcription without fences", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Corner Books\nTotal $12.00"))
		})
	})

	When("the server errors", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("returns the status and body", func() {
			Expect(err).To(MatchError(ContainSubstring("status 500")))
			Expect(err).To(MatchError(ContainSubstring("model not loaded")))
		})
	})
})

var _ = Describe("stripFences", func() {
	It("leaves plain text alone", func() {
		Expect(stripFences("  Total $5 \n")).To(Equal("Total $5"))
	})

	It("removes a text fence", func() {
		Expect(stripFences("```text\nTotal $5\n```")).To(Equal("Total $5"))
	})
})
