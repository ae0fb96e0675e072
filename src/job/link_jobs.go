package job

import (
	"github.com/mosaicnetworks/nrs/src/vn"
	"github.com/sirupsen/logrus"
)

// Phases of the link jobs.
const (
	ObtainIdentifiers  Phase = "ObtainIdentifiers"
	WaitForIdentifiers Phase = "WaitForIdentifiers"
	SendLinkMessage    Phase = "SendLinkMessage"
)

// linkJob drives the phases shared by CreateLinkJob and DeleteLinkJob. The
// endpoints are held by name and re-resolved on every run, so that a deleted
// or replaced variable is noticed.
//
// Phases: ObtainIdentifiers -> WaitForIdentifiers -> SendLinkMessage ->
// Complete.
type linkJob struct {
	base

	link       vn.Link
	lookup     Lookup
	programmer Programmer

	send func(source, target *vn.Variable) error
}

// Link returns the link being created or deleted.
func (j *linkJob) Link() vn.Link {
	return j.link
}

// Run implements the Job interface.
func (j *linkJob) Run() {
	j.run(func(phase Phase) {
		src, dst, ok := j.resolveVariables(j.lookup, j.link.Source, j.link.Target)
		if !ok {
			return
		}

		switch phase {
		case ObtainIdentifiers:
			j.obtainIdentifiers(src, dst)
		case WaitForIdentifiers:
			j.waitForIdentifiers(src, dst)
		case SendLinkMessage:
			j.sendLinkMessage(src, dst)
		}
	})
}

func bothKnown(src, dst *vn.Variable) bool {
	return src.Identity().Known() && dst.Identity().Known()
}

func (j *linkJob) obtainIdentifiers(src, dst *vn.Variable) {
	if bothKnown(src, dst) {
		j.setPhase(SendLinkMessage)
		return
	}

	for _, v := range []*vn.Variable{src, dst} {
		if err := j.programmer.QueryIdentifier(v); err != nil {
			j.fail(err)
			return
		}
	}

	j.setPhase(WaitForIdentifiers)
}

func (j *linkJob) waitForIdentifiers(src, dst *vn.Variable) {
	if bothKnown(src, dst) {
		j.setPhase(SendLinkMessage)
	}
}

func (j *linkJob) sendLinkMessage(src, dst *vn.Variable) {
	if err := j.send(src, dst); err != nil {
		j.fail(err)
		return
	}

	j.setPhase(Complete)
}

// CreateLinkJob links two variables on their components.
type CreateLinkJob struct {
	linkJob
}

// NewCreateLinkJob ...
func NewCreateLinkJob(link vn.Link, lookup Lookup, programmer Programmer, logger *logrus.Entry) *CreateLinkJob {
	j := &CreateLinkJob{}
	j.link = link
	j.lookup = lookup
	j.programmer = programmer
	j.send = programmer.CreateLink
	j.init(j, CreateLinkKind, link.String(), ObtainIdentifiers, logger)
	return j
}

// DeleteLinkJob unlinks two variables on their components.
type DeleteLinkJob struct {
	linkJob
}

// NewDeleteLinkJob ...
func NewDeleteLinkJob(link vn.Link, lookup Lookup, programmer Programmer, logger *logrus.Entry) *DeleteLinkJob {
	j := &DeleteLinkJob{}
	j.link = link
	j.lookup = lookup
	j.programmer = programmer
	j.send = programmer.DeleteLink
	j.init(j, DeleteLinkKind, link.String(), ObtainIdentifiers, logger)
	return j
}
