// Package layout transforms an inspection tree into page output. Two
// interchangeable strategies exist: markup emission, which produces LaTeX
// source for an external compiler, and direct drawing, which paginates a
// PDF canvas itself. Shared derivations (numbering, checkbox state,
// escaping) live in the format package so the strategies cannot drift on
// them.
package layout

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/pi-tools/report-forge/pkg/models/domain"
	"github.com/pi-tools/report-forge/pkg/services/assets"
	"github.com/pi-tools/report-forge/pkg/services/format"
)

// ContentMarker is the template line the generated body replaces.
const ContentMarker = "% --- REPORT CONTENT MARKER ---"

// imageTier sets per-image display bounds by photo count: a lone photo
// renders large, a crowded row renders small. Heights cap overflow so no
// image can outgrow a page.
type imageTier struct {
	width     string
	maxHeight string
}

func tierFor(count int) imageTier {
	switch count {
	case 1:
		return imageTier{"3.0in", "2.5in"}
	case 2:
		return imageTier{"1.8in", "2.0in"}
	case 3:
		return imageTier{"1.3in", "1.8in"}
	default:
		return imageTier{"1.0in", "1.5in"}
	}
}

type MarkupLayout struct{}

func NewMarkupLayout() *MarkupLayout { return &MarkupLayout{} }

type tex struct {
	b strings.Builder
}

func (t *tex) line(s string) {
	t.b.WriteString(s)
	t.b.WriteByte('\n')
}

func (t *tex) linef(format string, args ...any) {
	fmt.Fprintf(&t.b, format, args...)
	t.b.WriteByte('\n')
}

// Generate walks the inspection in input order and emits the full LaTeX
// report body: title page, form page, header setup, then one block per
// section. Photos resolve through the cache; URLs that failed to fetch are
// omitted from their image row.
func (m *MarkupLayout) Generate(ins *domain.Inspection, cache *assets.Cache) string {
	var t tex

	m.titlePage(&t, ins)
	m.formPage(&t, ins)
	m.headerSetup(&t)

	for i, section := range ins.Sections {
		t.linef(`\section*{\centering %s. %s}`,
			format.Roman(i+1), format.EscapeLaTeX(strings.ToUpper(section.Name)))
		t.line("")

		for j, item := range section.LineItems {
			m.lineItem(&t, item, j, cache)
		}
		t.line(`\clearpage`)
	}

	return t.b.String()
}

func (m *MarkupLayout) lineItem(t *tex, item domain.LineItem, idx int, cache *assets.Cache) {
	t.linef(`\subsection*{%s. %s}`, format.ItemLetter(idx), format.EscapeLaTeX(item.Title))
	t.line("")

	boxes := format.DeriveCheckboxes(item.InspectionStatus, item.IsDeficient)
	hasComments := len(item.Comments) > 0
	hasStatus := item.InspectionStatus != nil

	switch {
	case !hasComments && hasStatus:
		// Status but nothing to say: a one-row table records the boxes.
		t.line(`\begin{longtable}{c c c c p{0.65\textwidth}}`)
		t.line(`\textbf{I} & \textbf{NI} & \textbf{NP} & \textbf{D} & \textbf{Comments} \\ \hline \endhead`)
		t.linef(`%s & No comment \\`, boxes.LaTeX())
		t.line(`\end{longtable}`)
	case hasComments && !hasStatus:
		// Free text only, no checkbox table.
		for _, c := range item.Comments {
			if c.Value != "" {
				t.linef(`%s\\`, format.EscapeLaTeX(c.Value))
			}
		}
		t.line(`\vspace{1em}`)
	case !hasComments && !hasStatus:
		t.line(`No comment\\`)
		t.line(`\vspace{1em}`)
	default:
		t.line(`\begin{longtable}{c c c c p{0.65\textwidth}}`)
		t.line(`\textbf{I} & \textbf{NI} & \textbf{NP} & \textbf{D} & \textbf{Comments} \\ \hline \endhead`)
		for k, c := range item.Comments {
			label := fmt.Sprintf("%d. %s", k+1, c.Label)
			t.linef(`%s & \textbf{%s} \\`, boxes.LaTeX(), format.EscapeLaTeX(label))
			m.imageRow(t, c.Photos, cache)
			if c.Value != "" {
				t.linef(`\multicolumn{4}{c}{} & %s \\[0.5em]`, format.EscapeLaTeX(c.Value))
			}
		}
		t.line(`\end{longtable}`)
	}

	t.line(`\vspace{1em}`)
}

// imageRow emits one side-by-side image block for a comment's resolvable
// photos. Unresolved URLs are dropped; zero resolvable photos emit nothing.
func (m *MarkupLayout) imageRow(t *tex, photos []domain.Photo, cache *assets.Cache) {
	type placed struct {
		relPath string
		caption string
	}
	var valid []placed
	for _, p := range photos {
		if p.URL == "" {
			continue
		}
		localPath, ok := cache.Lookup(p.URL)
		if !ok {
			continue
		}
		valid = append(valid, placed{
			relPath: path.Join("images", filepath.Base(localPath)),
			caption: p.Caption,
		})
	}
	if len(valid) == 0 {
		return
	}

	tier := tierFor(len(valid))
	parts := make([]string, 0, len(valid))
	for _, img := range valid {
		var mp strings.Builder
		fmt.Fprintf(&mp, `\begin{minipage}[t]{%s}`+"\n", tier.width)
		mp.WriteString("\\centering\n")
		fmt.Fprintf(&mp, `\includegraphics[width=%s, height=%s, keepaspectratio]{%s}`,
			tier.width, tier.maxHeight, img.relPath)
		if img.caption != "" {
			mp.WriteString("\n" + `\vspace{0.1cm} \\` + "\n")
			fmt.Fprintf(&mp, `{\small\itshape %s}`, format.EscapeLaTeX(img.caption))
		}
		mp.WriteString("\n" + `\end{minipage}`)
		parts = append(parts, mp.String())
	}

	t.linef(`& & & & \parbox{\linewidth}{\centering %s} \\[0.3em]`,
		strings.Join(parts, ` \hspace{0.2cm} `))
}

func (m *MarkupLayout) titlePage(t *tex, ins *domain.Inspection) {
	clientName := format.EscapeLaTeX(ins.ClientInfo.Name)
	fullAddress := format.EscapeLaTeX(ins.Address.FullAddress)
	inspectorName := format.EscapeLaTeX(ins.Inspector.Name)
	inspectorEmail := format.EscapeLaTeX(ins.Inspector.Email)
	date := format.Timestamp(ins.Schedule.Date)

	t.line(`\thispagestyle{empty}`)
	t.line("")
	t.line(`\begin{center}`)
	t.line(`\vspace*{2cm}`)
	t.line(`\textbf{\Huge PROPERTY INSPECTION REPORT}`)
	t.line(`\vspace{1cm}`)
	t.line("")
	t.line(`\hrule`)
	t.line(`\vspace{0.5cm}`)
	t.line("")
	t.line(`\textbf{\Large Prepared For:}`)
	t.line("")
	t.linef(`\textbf{\large %s}`, clientName)
	t.line(`\vspace{0.5cm}`)
	t.line("")
	t.line(`\textbf{\Large Concerning:}`)
	t.line("")
	t.linef(`\textbf{\large %s}`, fullAddress)
	t.line(`\vspace{0.5cm}`)
	t.line("")
	t.line(`\hrule`)
	t.line(`\vspace{1cm}`)
	t.line("")
	t.line(`\textbf{\Large By:}`)
	t.line("")
	t.linef(`\textbf{\large %s}`, inspectorName)
	if inspectorEmail != "" {
		t.line(`\vspace{0.3cm}`)
		t.line("")
		t.linef(`\textbf{Email:} %s`, inspectorEmail)
	}
	t.line(`\vspace{1cm}`)
	t.line("")
	t.line(`\textbf{\Large Date of Inspection:}`)
	t.line("")
	t.linef(`\textbf{\large %s}`, date)

	if agent, ok := ins.PrimaryAgent(); ok && agent.Name != "" {
		t.line(`\vspace{1cm}`)
		t.line("")
		t.linef(`\textbf{Real Estate Agent:} %s`, format.EscapeLaTeX(agent.Name))
		if agent.Company.Name != "" {
			t.line("")
			t.linef(`\textbf{Company:} %s`, format.EscapeLaTeX(agent.Company.Name))
		}
	}
	if sqft := ins.BookingFormData.PropertyInfo.SquareFootage; sqft > 0 {
		t.line(`\vspace{0.5cm}`)
		t.line("")
		t.linef(`\textbf{Approximate Square Footage:} %d sq ft`, sqft)
	}

	t.line(`\vspace{1.5cm}`)
	t.line("")
	t.line(`\begin{minipage}{0.48\textwidth}`)
	t.line(`\centering`)
	t.line(`\includegraphics[width=\textwidth, height=2.5in, keepaspectratio]{obstruction.png}`)
	t.line(`\textit{\small Obstructed area example}`)
	t.line(`\end{minipage}`)
	t.line(`\hfill`)
	t.line(`\begin{minipage}{0.48\textwidth}`)
	t.line(`\centering`)
	t.line(`\includegraphics[width=\textwidth, height=2.5in, keepaspectratio]{scope.png}`)
	t.line(`\textit{\small \\ Scope and Limitations}`)
	t.line(`\end{minipage}`)
	t.line(`\end{center}`)
	t.line(`\clearpage`)
	t.line("")
}

func (m *MarkupLayout) formPage(t *tex, ins *domain.Inspection) {
	t.line(`\thispagestyle{empty}`)
	t.line("")
	t.line(`\noindent`)
	t.line(`\begin{tabular}{|p{0.45\textwidth}|p{0.45\textwidth}|}`)
	t.line(`\hline`)
	t.line(`\textbf{Buyer Name} & \textbf{Date of Inspection} \\`)
	t.linef(`%s & %s \\`, format.EscapeLaTeX(ins.ClientInfo.Name), format.Timestamp(ins.Schedule.Date))
	t.line(`\hline`)
	t.line(`\multicolumn{2}{|p{0.93\textwidth}|}{\textbf{Address of Inspected Property}} \\`)
	t.linef(`\multicolumn{2}{|p{0.93\textwidth}|}{%s} \\`, format.EscapeLaTeX(ins.Address.FullAddress))
	t.line(`\hline`)
	t.line(`\textbf{Name of Inspector} & \textbf{License \#} \\`)
	t.linef(`%s & %% FORGE_LICENSE %% \\`, format.EscapeLaTeX(ins.Inspector.Name))
	t.line(`\hline`)
	t.line(`\textbf{Name of Sponsor (if applicable)} & \textbf{License \#} \\`)
	t.line(`% FORGE_SPONSOR_NAME % & % FORGE_SPONSOR_LICENSE % \\`)
	t.line(`\hline`)
	t.line(`\end{tabular}`)
	t.line("")
	t.line(`\vspace{1em}`)
	t.line("")
	t.line(`\begin{center}`)
	t.line(`\textbf{\Large PROPERTY INSPECTION REPORT FORM}`)
	t.line(`\end{center}`)
	t.line("")
	t.line(`\vspace{1em}`)
	t.line("")
	t.line(`\subsection*{PURPOSE OF INSPECTION}`)
	t.line(`A real estate inspection is a visual survey of a structure and a basic performance evaluation of the systems and components of a building. It provides information regarding the general condition of a residence at the time the inspection was conducted.`)
	t.line("")
	t.line(`It is important that you carefully read ALL of this information. Ask the inspector to clarify any items or comments that are unclear.`)
	t.line("")
	t.line(`\subsection*{RESPONSIBILITY OF THE INSPECTOR}`)
	t.line(`This inspection is governed by the applicable Standards of Practice (SOPs), which dictate the minimum requirements for a real estate inspection.`)
	t.line("")
	t.line(`\noindent\textbf{The inspector IS required to:}`)
	t.line(`\begin{itemize}`)
	t.line(`\setlength{\itemsep}{0pt}`)
	t.line(`\setlength{\parskip}{0pt}`)
	t.line(`\item use this Property Inspection Report form for the inspection;`)
	t.line(`\item inspect only those components and conditions that are present, visible, and accessible at the time of the inspection;`)
	t.line(`\item indicate whether each item was inspected, not inspected, or not present;`)
	t.line(`\item indicate an item as Deficient (D) if a condition exists that adversely and materially affects the performance of a system or component OR constitutes a hazard to life, limb or property as specified by the SOPs; and`)
	t.line(`\item explain the inspector's findings in the corresponding section in the body of the report form.`)
	t.line(`\end{itemize}`)
	t.line("")
	t.line(`\noindent\textbf{The inspector IS NOT required to:}`)
	t.line(`\begin{itemize}`)
	t.line(`\setlength{\itemsep}{0pt}`)
	t.line(`\setlength{\parskip}{0pt}`)
	t.line(`\item identify all potential hazards;`)
	t.line(`\item turn on decommissioned equipment, systems, utilities, or apply an open flame or light a pilot to operate any appliance;`)
	t.line(`\item climb over obstacles, move furnishings or stored items;`)
	t.line(`\item prioritize or emphasize the importance of one deficiency over another;`)
	t.line(`\item provide follow-up services to verify that proper repairs have been made; or`)
	t.line(`\item inspect system or component listed under the optional section of the SOPs.`)
	t.line(`\end{itemize}`)
	t.line("")
	t.line(`\subsection*{RESPONSIBILITY OF THE CLIENT}`)
	t.line(`While items identified as Deficient (D) in an inspection report DO NOT obligate any party to make repairs or take other actions, in the event that any further evaluations are needed, it is the responsibility of the client to obtain further evaluations and/or cost estimates from qualified service professionals regarding any items reported as Deficient (D). It is recommended that any further evaluations and/or cost estimates take place prior to the expiration of any contractual time limitations, such as option periods.`)
	t.line("")
	t.line(`\noindent\textbf{Please Note:} Evaluations performed by service professionals in response to items reported as Deficient (D) on the report may lead to the discovery of additional deficiencies that were not present, visible, or accessible at the time of the inspection. Any repairs made after the date of the inspection may render information contained in this report obsolete or invalid.`)
	t.line("")
	t.line(`\clearpage`)
	t.line("")
}

// headerSetup turns on the running header/footer from the first section
// page onward: report-id field and legend up top, page counter below.
func (m *MarkupLayout) headerSetup(t *tex) {
	t.line(`\pagestyle{fancy}`)
	t.line(`\fancyhf{}`)
	t.line("")
	t.line(`\fancyhead[L]{%`)
	t.line(`    Report Identification: \TextField[name=reportid, width=3in, height=12pt, bordercolor={}, backgroundcolor={}, borderstyle=U, borderwidth=1]{} \\`)
	t.line(`    \textbf{I=Inspected \quad NI=Not Inspected \quad NP=Not Present \quad D=Deficient}`)
	t.line(`}`)
	t.line(`\renewcommand{\headrulewidth}{0pt}`)
	t.line("")
	t.line(`\fancyfoot[L]{REI 7-6 (\mmddyyyydate\today)}`)
	t.line(`\fancyfoot[C]{}`)
	t.line(`\fancyfoot[R]{Page \thepage\ of \pageref{LastPage}}`)
	t.line("")
}

// templatePlaceholders maps the markers in the report template to their
// values from the inspection and the inspector profile.
func templatePlaceholders(ins *domain.Inspection, profile *domain.InspectorProfile) map[string]string {
	if profile == nil {
		profile = &domain.InspectorProfile{}
	}
	return map[string]string{
		"% FORGE_BUYER_NAME %":       format.EscapeLaTeX(ins.ClientInfo.Name),
		"% FORGE_INSPECTION_DATE %":  format.Timestamp(ins.Schedule.Date),
		"% FORGE_PROPERTY_ADDRESS %": format.EscapeLaTeX(ins.Address.FullAddress),
		"% FORGE_INSPECTOR_NAME %":   format.EscapeLaTeX(ins.Inspector.Name),
		"% FORGE_LICENSE %":          format.EscapeLaTeX(profile.LicenseNumber),
		"% FORGE_SPONSOR_NAME %":     format.EscapeLaTeX(profile.SponsorName),
		"% FORGE_SPONSOR_LICENSE %":  format.EscapeLaTeX(profile.SponsorLicense),
	}
}

// PopulateTemplate splices the generated body at the content marker and
// then fills the placeholders, so markers inside the body resolve too.
func PopulateTemplate(tpl string, body string, ins *domain.Inspection, profile *domain.InspectorProfile) string {
	doc := strings.Replace(tpl, ContentMarker, body, 1)
	for marker, value := range templatePlaceholders(ins, profile) {
		doc = strings.ReplaceAll(doc, marker, value)
	}
	return doc
}
