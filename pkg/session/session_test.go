package session_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/superbiz/pkg/session"
)

var _ = Describe("NewID", func() {
	It("returns distinct valid ids", func() {
		a, b := session.NewID(), session.NewID()
		Expect(a).NotTo(Equal(b))
		Expect(session.Validate(a)).To(Succeed())
		Expect(session.IsGenerated(a)).To(BeTrue())
	})
})

var _ = Describe("Validate", func() {
	It("accepts opaque ids", func() {
		Expect(session.Validate("session-1")).To(Succeed())
		Expect(session.Validate("会话")).To(Succeed())
	})

	DescribeTable("rejects unusable ids",
		func(id string) {
			Expect(session.Validate(id)).NotTo(Succeed())
		},
		Entry("empty", ""),
		Entry("blank", "   "),
		Entry("slash", "a/b"),
		Entry("query", "a?b"),
		Entry("control", "a\nb"),
		Entry("too long", strings.Repeat("x", 129)),
	)
})

var _ = Describe("IsGenerated", func() {
	It("is false for user supplied ids", func() {
		Expect(session.IsGenerated("my-session")).To(BeFalse())
	})
})
