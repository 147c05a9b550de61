package payment_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	paymentPkg "github.com/solatech/solar-commerce/internal/payment"
)

var _ = Describe("CallbackEnvelope", func() {
	parse := func(raw string) *paymentPkg.StkCallback {
		var envelope paymentPkg.CallbackEnvelope
		Expect(json.Unmarshal([]byte(raw), &envelope)).To(Succeed())
		Expect(envelope.Body.StkCallback).ToNot(BeNil())
		return envelope.Body.StkCallback
	}

	Describe("result code normalization", func() {
		It("should normalize a numeric result code", func() {
			cb := parse(`{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_1","ResultCode":0,"ResultDesc":"ok"}}}`)

			Expect(cb.Result().IsSuccess()).To(BeTrue())
			Expect(cb.Result().String()).To(Equal("0"))
		})

		It("should normalize a string result code", func() {
			cb := parse(`{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_1","ResultCode":"0","ResultDesc":"ok"}}}`)

			Expect(cb.Result().IsSuccess()).To(BeTrue())
		})

		It("should treat any non-zero code as failure", func() {
			cb := parse(`{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_1","ResultCode":1032,"ResultDesc":"cancelled"}}}`)

			Expect(cb.Result().IsSuccess()).To(BeFalse())
			Expect(cb.Result().String()).To(Equal("1032"))
		})
	})

	Describe("ConfirmedDetails", func() {
		It("should extract amount, phone and receipt from metadata items", func() {
			cb := parse(`{"Body":{"stkCallback":{
				"CheckoutRequestID":"ws_CO_1",
				"ResultCode":0,
				"ResultDesc":"ok",
				"CallbackMetadata":{"Item":[
					{"Name":"Amount","Value":7500},
					{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},
					{"Name":"TransactionDate","Value":20260829101500},
					{"Name":"PhoneNumber","Value":254712345678}
				]}
			}}}`)

			amount, phone, receipt := cb.ConfirmedDetails()

			Expect(amount).ToNot(BeNil())
			Expect(*amount).To(Equal(7500.0))
			Expect(phone).ToNot(BeNil())
			Expect(*phone).To(Equal("254712345678"))
			Expect(receipt).ToNot(BeNil())
			Expect(*receipt).To(Equal("NLJ7RT61SV"))
		})

		It("should tolerate missing metadata", func() {
			cb := parse(`{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_1","ResultCode":1032,"ResultDesc":"cancelled"}}}`)

			amount, phone, receipt := cb.ConfirmedDetails()

			Expect(amount).To(BeNil())
			Expect(phone).To(BeNil())
			Expect(receipt).To(BeNil())
		})

		It("should tolerate partially present items", func() {
			cb := parse(`{"Body":{"stkCallback":{
				"CheckoutRequestID":"ws_CO_1",
				"ResultCode":0,
				"ResultDesc":"ok",
				"CallbackMetadata":{"Item":[{"Name":"Amount","Value":100}]}
			}}}`)

			amount, phone, receipt := cb.ConfirmedDetails()

			Expect(*amount).To(Equal(100.0))
			Expect(phone).To(BeNil())
			Expect(receipt).To(BeNil())
		})
	})

	Describe("InitiatePaymentRequest validation", func() {
		It("should accept a valid request", func() {
			req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: 100}
			Expect(req.Validate()).To(Succeed())
		})

		It("should reject a missing phone", func() {
			req := &paymentPkg.InitiatePaymentRequest{Amount: 100}
			Expect(req.Validate()).ToNot(Succeed())
		})

		It("should reject a negative amount", func() {
			req := &paymentPkg.InitiatePaymentRequest{Phone: "254712345678", Amount: -5}
			Expect(req.Validate()).ToNot(Succeed())
		})
	})
})
