// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"text/template"
)

const (
	nsA = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`
	nsR = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	nsP = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	ctBase  = "application/vnd.openxmlformats-officedocument.presentationml."

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	// emptyTree is the group shape header every spTree starts with.
	emptyTree = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

	// Slide relationship IDs in presentation.xml.rels start after the
	// fixed parts.
	firstSlideRel = 6
	firstSlideID  = 256
)

var funcs = template.FuncMap{
	"xml": func(s string) (string, error) {
		var b bytes.Buffer
		if err := xml.EscapeText(&b, []byte(s)); err != nil {
			return "", err
		}
		return b.String(), nil
	},
	"slideRel": func(n int) int { return firstSlideRel + n - 1 },
	"slideID":  func(n int) int { return firstSlideID + n - 1 },
}

func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(xmlHeader + text))
}

func writeTemplate(zw *zip.Writer, name string, tmpl *template.Template, data any) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	return nil
}

type part struct {
	name string
	tmpl *template.Template
}

// packageParts are rendered once per deck, in zip order.
var packageParts = []part{
	{"[Content_Types].xml", contentTypesTmpl},
	{"_rels/.rels", rootRelsTmpl},
	{"docProps/core.xml", coreTmpl},
	{"docProps/app.xml", appTmpl},
	{"ppt/presentation.xml", presentationTmpl},
	{"ppt/_rels/presentation.xml.rels", presentationRelsTmpl},
	{"ppt/presProps.xml", presPropsTmpl},
	{"ppt/viewProps.xml", viewPropsTmpl},
	{"ppt/tableStyles.xml", tableStylesTmpl},
	{"ppt/slideMasters/slideMaster1.xml", masterTmpl},
	{"ppt/slideMasters/_rels/slideMaster1.xml.rels", masterRelsTmpl},
	{"ppt/slideLayouts/slideLayout1.xml", layoutTmpl},
	{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", layoutRelsTmpl},
	{"ppt/theme/theme1.xml", themeTmpl},
}

var contentTypesTmpl = parse("content-types", `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`+
	`<Default Extension="xml" ContentType="application/xml"/>`+
	`{{if .HasPNG}}<Default Extension="png" ContentType="image/png"/>{{end}}`+
	`{{if .HasJPEG}}<Default Extension="jpeg" ContentType="image/jpeg"/>{{end}}`+
	`<Override PartName="/ppt/presentation.xml" ContentType="`+ctBase+`presentation.main+xml"/>`+
	`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="`+ctBase+`slideMaster+xml"/>`+
	`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="`+ctBase+`slideLayout+xml"/>`+
	`{{range .Slides}}<Override PartName="/ppt/slides/slide{{.Number}}.xml" ContentType="`+ctBase+`slide+xml"/>{{end}}`+
	`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`+
	`<Override PartName="/ppt/presProps.xml" ContentType="`+ctBase+`presProps+xml"/>`+
	`<Override PartName="/ppt/viewProps.xml" ContentType="`+ctBase+`viewProps+xml"/>`+
	`<Override PartName="/ppt/tableStyles.xml" ContentType="`+ctBase+`tableStyles+xml"/>`+
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`+
	`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`+
	`</Types>`)

var rootRelsTmpl = parse("root-rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`<Relationship Id="rId1" Type="`+relBase+`officeDocument" Target="ppt/presentation.xml"/>`+
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>`+
	`<Relationship Id="rId3" Type="`+relBase+`extended-properties" Target="docProps/app.xml"/>`+
	`</Relationships>`)

var coreTmpl = parse("core", `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" `+
	`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" `+
	`xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`+
	`<dc:title>{{xml .Title}}</dc:title><dc:creator>deck-converter</dc:creator>`+
	`<dcterms:created xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:created>`+
	`<dcterms:modified xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:modified>`+
	`</cp:coreProperties>`)

var appTmpl = parse("app", `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" `+
	`xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">`+
	`<Application>deck-converter</Application><Slides>{{.NumSlide}}</Slides>`+
	`</Properties>`)

var presentationTmpl = parse("presentation", `<p:presentation `+nsA+` `+nsR+` `+nsP+` saveSubsetFonts="1">`+
	`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`+
	`<p:sldIdLst>{{range .Slides}}<p:sldId id="{{slideID .Number}}" r:id="rId{{slideRel .Number}}"/>{{end}}</p:sldIdLst>`+
	`<p:sldSz cx="{{.Width}}" cy="{{.Height}}"/>`+
	`<p:notesSz cx="6858000" cy="9144000"/>`+
	`</p:presentation>`)

var presentationRelsTmpl = parse("presentation-rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`<Relationship Id="rId1" Type="`+relBase+`slideMaster" Target="slideMasters/slideMaster1.xml"/>`+
	`<Relationship Id="rId2" Type="`+relBase+`presProps" Target="presProps.xml"/>`+
	`<Relationship Id="rId3" Type="`+relBase+`viewProps" Target="viewProps.xml"/>`+
	`<Relationship Id="rId4" Type="`+relBase+`theme" Target="theme/theme1.xml"/>`+
	`<Relationship Id="rId5" Type="`+relBase+`tableStyles" Target="tableStyles.xml"/>`+
	`{{range .Slides}}<Relationship Id="rId{{slideRel .Number}}" Type="`+relBase+`slide" Target="slides/slide{{.Number}}.xml"/>{{end}}`+
	`</Relationships>`)

var presPropsTmpl = parse("pres-props", `<p:presentationPr `+nsA+` `+nsR+` `+nsP+`/>`)

var viewPropsTmpl = parse("view-props", `<p:viewPr `+nsA+` `+nsR+` `+nsP+`><p:gridSpacing cx="76200" cy="76200"/></p:viewPr>`)

var tableStylesTmpl = parse("table-styles", `<a:tblStyleLst `+nsA+` def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`)

var masterTmpl = parse("master", `<p:sldMaster `+nsA+` `+nsR+` `+nsP+`>`+
	`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>`+emptyTree+`</p:spTree></p:cSld>`+
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" `+
	`accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`+
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>`+
	`<p:txStyles><p:titleStyle/><p:bodyStyle/><p:otherStyle/></p:txStyles>`+
	`</p:sldMaster>`)

var masterRelsTmpl = parse("master-rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`<Relationship Id="rId1" Type="`+relBase+`slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`+
	`<Relationship Id="rId2" Type="`+relBase+`theme" Target="../theme/theme1.xml"/>`+
	`</Relationships>`)

var layoutTmpl = parse("layout", `<p:sldLayout `+nsA+` `+nsR+` `+nsP+` type="blank" preserve="1">`+
	`<p:cSld name="Blank"><p:spTree>`+emptyTree+`</p:spTree></p:cSld>`+
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`+
	`</p:sldLayout>`)

var layoutRelsTmpl = parse("layout-rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`<Relationship Id="rId1" Type="`+relBase+`slideMaster" Target="../slideMasters/slideMaster1.xml"/>`+
	`</Relationships>`)

var slideTmpl = parse("slide", `<p:sld `+nsA+` `+nsR+` `+nsP+`>`+
	`<p:cSld><p:spTree>`+emptyTree+
	`<p:pic><p:nvPicPr><p:cNvPr id="2" name="Page {{.Number}}"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`+
	`<p:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
	`<p:spPr><a:xfrm><a:off x="{{.X}}" y="{{.Y}}"/><a:ext cx="{{.CX}}" cy="{{.CY}}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`+
	`</p:pic></p:spTree></p:cSld>`+
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`+
	`</p:sld>`)

var slideRelsTmpl = parse("slide-rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
	`<Relationship Id="rId1" Type="`+relBase+`slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`+
	`<Relationship Id="rId2" Type="`+relBase+`image" Target="../media/image{{.Number}}.{{.Image.Ext}}"/>`+
	`</Relationships>`)

var themeTmpl = parse("theme", `<a:theme `+nsA+` name="Office Theme"><a:themeElements>`+
	`<a:clrScheme name="Office">`+
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>`+
	`<a:dk2><a:srgbClr val="44546A"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>`+
	`<a:accent1><a:srgbClr val="4472C4"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2>`+
	`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4>`+
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6>`+
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink>`+
	`</a:clrScheme>`+
	`<a:fontScheme name="Office">`+
	`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>`+
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>`+
	`</a:fontScheme>`+
	`<a:fmtScheme name="Office">`+
	`<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>`+
	`<a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>`+
	`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>`+
	`<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>`+
	`</a:fmtScheme>`+
	`</a:themeElements></a:theme>`)
