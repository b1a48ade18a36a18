package model_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"driftapp.dev/drift/internal/model"
)

var _ = Describe("Project", func() {
	Describe("WeekNumber", func() {
		started := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

		It("is 1 during the first week", func() {
			p := model.Project{StartedAt: started}
			Expect(p.WeekNumber(started.Add(3 * 24 * time.Hour))).To(Equal(1))
		})

		It("increments every seven days", func() {
			p := model.Project{StartedAt: started}
			Expect(p.WeekNumber(started.AddDate(0, 0, 7))).To(Equal(2))
			Expect(p.WeekNumber(started.AddDate(0, 0, 20))).To(Equal(3))
		})

		It("never drops below 1", func() {
			p := model.Project{StartedAt: started}
			Expect(p.WeekNumber(started.AddDate(0, 0, -14))).To(Equal(1))
		})
	})
})

var _ = Describe("SlackMessage", func() {
	Describe("IsThreadRoot", func() {
		It("treats an unthreaded message as a root", func() {
			m := model.SlackMessage{MessageTs: "1.0"}
			Expect(m.IsThreadRoot()).To(BeTrue())
		})

		It("treats a self-referencing thread as a root", func() {
			ts := "1.0"
			m := model.SlackMessage{MessageTs: "1.0", ThreadTs: &ts}
			Expect(m.IsThreadRoot()).To(BeTrue())
		})

		It("treats a reply as not a root", func() {
			root := "1.0"
			m := model.SlackMessage{MessageTs: "2.0", ThreadTs: &root}
			Expect(m.IsThreadRoot()).To(BeFalse())
		})
	})
})

var _ = Describe("Member", func() {
	It("only admins are admins", func() {
		Expect(model.Member{Role: model.MemberRoleAdmin}.IsAdmin()).To(BeTrue())
		Expect(model.Member{Role: model.MemberRoleMember}.IsAdmin()).To(BeFalse())
		Expect(model.Member{}.IsAdmin()).To(BeFalse())
	})
})
