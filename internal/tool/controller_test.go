package tool_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/pdfannotate/internal/tool"
	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

var _ = Describe("Tool controller", func() {
	var c *tool.Controller

	BeforeEach(func() {
		var err error
		c, err = tool.NewController(models.DefaultToolState())
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts on the select tool with the default style", func() {
		Expect(c.State()).To(Equal(models.ToolState{Type: models.ToolSelect, Color: "#3b82f6", StrokeWidth: 2}))
		Expect(c.Selectable()).To(BeTrue())
	})

	It("grants selection only to the select tool", func() {
		for _, t := range models.ToolTypes {
			_, err := c.SetType(t)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Selectable()).To(Equal(t == models.ToolSelect))
		}
	})

	It("keeps colour and width when switching tools", func() {
		_, err := c.SetColor("#ec4899")
		Expect(err).NotTo(HaveOccurred())
		_, err = c.SetType(models.ToolCircle)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.State().Color).To(Equal("#ec4899"))
		Expect(c.State().StrokeWidth).To(Equal(2.0))
	})

	DescribeTable("validates input",
		func(apply func() error, expected error) {
			before := c.State()
			Expect(apply()).To(MatchError(expected))
			Expect(c.State()).To(Equal(before))
		},
		Entry("unknown tool", func() error { _, err := c.SetType("triangle"); return err }, tool.ErrUnknownTool),
		Entry("named colour", func() error { _, err := c.SetColor("red"); return err }, tool.ErrInvalidColor),
		Entry("zero width", func() error { _, err := c.SetStrokeWidth(0); return err }, tool.ErrInvalidStroke),
		Entry("negative width", func() error { _, err := c.SetStrokeWidth(-2); return err }, tool.ErrInvalidStroke),
	)

	It("notifies subscribers only on real changes", func() {
		var seen []models.ToolType
		unsubscribe := c.Subscribe(func(prev, next models.ToolState) {
			seen = append(seen, next.Type)
		})

		changed, err := c.SetType(models.ToolLine)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())

		changed, err = c.SetType(models.ToolLine)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeFalse())

		unsubscribe()
		_, err = c.SetType(models.ToolText)
		Expect(err).NotTo(HaveOccurred())

		Expect(seen).To(Equal([]models.ToolType{models.ToolLine}))
	})

	It("offers only valid palette colours", func() {
		Expect(tool.Palette).To(HaveLen(10))
		for _, color := range tool.Palette {
			Expect(models.ValidColor(color)).To(BeTrue(), color)
		}
	})
})
