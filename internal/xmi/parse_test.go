package xmi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<XMI xmi.version="1.1" xmlns:UML="omg.org/UML1.3">
	<XMI.content>
		<UML:Model name="EA Model" xmi.id="MX_EAID_1">
			<UML:Namespace.ownedElement>
				<UML:Package name="Root" xmi.id="EAPK_1" isRoot="false">
					<UML:ModelElement.taggedValue>
						<UML:TaggedValue tag="parent" value="EAPK_0"/>
					</UML:ModelElement.taggedValue>
				</UML:Package>
			</UML:Namespace.ownedElement>
		</UML:Model>
		<UML:TaggedValue tag="author" value="jdoe" modelElement="EAPK_1"/>
	</XMI.content>
</XMI>`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	require.NotNil(t, doc.Root)
	assert.Equal(t, "XMI", doc.Root.Local)

	content := doc.Find("XMI.content")
	require.NotNil(t, content)
	assert.Len(t, content.Children(), 2)

	pkg := doc.Find("Package")
	require.NotNil(t, pkg)
	assert.Equal(t, "Package", pkg.Local)
	name, ok := pkg.Attr("name")
	assert.True(t, ok)
	assert.Equal(t, "Root", name)
	assert.Equal(t, "fallback", pkg.AttrOr("missing", "fallback"))

	attrs := pkg.Attrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, []string{"name", "xmi.id", "isRoot"}, []string{attrs[0].Name, attrs[1].Name, attrs[2].Name})

	tv := pkg.Child("ModelElement.taggedValue")
	require.NotNil(t, tv)
	assert.Len(t, tv.ChildrenNamed("TaggedValue"), 1)

	// FindAll reaches both the nested and the tail tagged value.
	assert.Len(t, doc.Root.FindAll("TaggedValue"), 2)
	assert.Len(t, content.ChildrenNamed("TaggedValue"), 1)
}

func TestParse_NamespaceDecl(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	var decls int
	for _, a := range doc.Root.Attrs() {
		if a.IsNamespaceDecl() {
			decls++
		}
	}
	assert.Equal(t, 1, decls)
}

func TestParse_Windows1252(t *testing.T) {
	// 0xE9 is "é" in windows-1252.
	input := "<?xml version=\"1.0\" encoding=\"windows-1252\"?>\n<XMI><Model name=\"caf\xe9\"/></XMI>"
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	model := doc.Find("Model")
	require.NotNil(t, model)
	assert.Equal(t, "café", model.AttrOr("name", ""))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = Parse(strings.NewReader("<XMI><Model></XMI>"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("<XMI/><Other/>"))
	assert.Error(t, err)
}

func TestFind_Missing(t *testing.T) {
	doc, err := Parse(strings.NewReader("<XMI><A><B/></A></XMI>"))
	require.NoError(t, err)
	assert.Nil(t, doc.Find("C"))
	assert.NotNil(t, doc.Find("B"))

	var nilDoc *Document
	assert.Nil(t, nilDoc.Find("A"))
}
