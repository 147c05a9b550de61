package main_test

import (
	"context"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OpenAPI contract", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()

		var err error
		doc, err = loader.LoadFromFile("api/openapi.yml")
		Expect(err).ToNot(HaveOccurred())

		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	It("should document the payment callback as an always-200 endpoint", func() {
		path := doc.Paths.Find("/payments/callback")
		Expect(path).ToNot(BeNil())
		Expect(path.Post).ToNot(BeNil())

		responses := path.Post.Responses.Map()
		Expect(responses).To(HaveKey("200"))
		Expect(responses).To(HaveLen(1))
	})

	It("should document the payment initiation endpoint", func() {
		path := doc.Paths.Find("/payments/stkpush")
		Expect(path).ToNot(BeNil())
		Expect(path.Post).ToNot(BeNil())
		Expect(path.Post.Responses.Map()).To(HaveKey("202"))
	})

	It("should document checkout and fulfillment operations", func() {
		Expect(doc.Paths.Find("/orders/checkout")).ToNot(BeNil())
		Expect(doc.Paths.Find("/admin/orders/{id}/status")).ToNot(BeNil())
	})

	It("should document the support desk and admin account surface", func() {
		Expect(doc.Paths.Find("/tickets")).ToNot(BeNil())
		Expect(doc.Paths.Find("/admin/tickets/{id}")).ToNot(BeNil())
		Expect(doc.Paths.Find("/admin/users/{id}")).ToNot(BeNil())
	})

	It("should secure authenticated operations with the bearer scheme", func() {
		scheme := doc.Components.SecuritySchemes["bearerAuth"]
		Expect(scheme).ToNot(BeNil())
		Expect(scheme.Value.Type).To(Equal("http"))
		Expect(scheme.Value.Scheme).To(Equal("bearer"))

		me := doc.Paths.Find("/users/me")
		Expect(me).ToNot(BeNil())
		Expect(me.GetOperation(http.MethodGet).Security).ToNot(BeNil())
	})
})
