package job

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/mosaicnetworks/nrs/src/vn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeProgrammer struct {
	sync.Mutex
	calls []string
	err   error
	panic bool
}

func (p *fakeProgrammer) record(call string) error {
	p.Lock()
	defer p.Unlock()

	if p.panic {
		panic("programmer exploded")
	}
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, call)
	return nil
}

func (p *fakeProgrammer) Calls() []string {
	p.Lock()
	defer p.Unlock()

	res := make([]string, len(p.calls))
	copy(res, p.calls)
	return res
}

func (p *fakeProgrammer) CreateNode(node *vn.Node) error {
	return p.record("create " + string(node.Name()))
}

func (p *fakeProgrammer) DeleteNode(node *vn.Node) error {
	return p.record(fmt.Sprintf("delete %s %d", node.Name(), node.Identity().Identifier()))
}

func (p *fakeProgrammer) QueryIdentifier(o vn.Object) error {
	return p.record("query " + string(o.Name()))
}

func (p *fakeProgrammer) CreateLink(source, target *vn.Variable) error {
	return p.record(fmt.Sprintf("link %s->%s", source.Name(), target.Name()))
}

func (p *fakeProgrammer) DeleteLink(source, target *vn.Variable) error {
	return p.record(fmt.Sprintf("unlink %s->%s", source.Name(), target.Name()))
}

// phaseRecorder is an Observer remembering every phase it was notified of.
type phaseRecorder struct {
	sync.Mutex
	phases []Phase
}

func (r *phaseRecorder) observe(j Job) {
	r.Lock()
	defer r.Unlock()
	r.phases = append(r.phases, j.Phase())
}

func (r *phaseRecorder) count(p Phase) int {
	r.Lock()
	defer r.Unlock()
	c := 0
	for _, ph := range r.phases {
		if ph == p {
			c++
		}
	}
	return c
}

func testNode(t *testing.T, reg *vn.Registry, name vn.Name, vars ...vn.VariableSpec) *vn.Node {
	spec := vn.NodeSpec{
		Name:      name,
		Type:      "Test",
		Component: "plant",
		Variables: vars,
	}
	require.NoError(t, spec.Validate())

	n := vn.NewNode(spec, common.NewTestEntry(t, logrus.DebugLevel))
	require.NoError(t, reg.AddNode(n))
	return n
}

func TestCreateNodeJobHappyPath(t *testing.T) {
	reg := vn.NewRegistry()
	prog := &fakeProgrammer{}
	node := testNode(t, reg, "net.a")

	j := NewCreateNodeJob(node, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))
	rec := &phaseRecorder{}
	j.AddObserver(rec.observe)

	require.Equal(t, SendCreate, j.Phase())

	// one phase per Run: the query goes out on the second invocation
	j.Run()
	require.Equal(t, ObtainIdentifier, j.Phase())
	require.Equal(t, []string{"create net.a"}, prog.Calls())

	j.Run()
	require.Equal(t, WaitForIdentifier, j.Phase())
	require.Equal(t, []string{"create net.a", "query net.a"}, prog.Calls())

	// no reply yet: the job keeps waiting without submitting anything
	j.Run()
	j.Run()
	require.Equal(t, WaitForIdentifier, j.Phase())
	require.Len(t, prog.Calls(), 2)

	// a malformed reply does not help
	require.Error(t, node.Identity().SetIdentifier(0))
	j.Run()
	require.Equal(t, WaitForIdentifier, j.Phase())

	require.NoError(t, node.Identity().SetIdentifier(42))
	j.Run()
	require.Equal(t, Complete, j.Phase())
	require.Equal(t, 1, rec.count(Complete))
	require.Empty(t, j.Result())

	j.Run()
	require.Equal(t, 1, rec.count(Complete))
	require.Len(t, prog.Calls(), 2)
}

func TestCreateNodeJobKnownIdentifier(t *testing.T) {
	reg := vn.NewRegistry()
	prog := &fakeProgrammer{}
	node := testNode(t, reg, "net.a")
	require.NoError(t, node.Identity().SetIdentifier(5))

	j := NewCreateNodeJob(node, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))

	j.Run()
	j.Run()

	require.Equal(t, Complete, j.Phase())
	require.Equal(t, []string{"create net.a"}, prog.Calls())
}

func TestCreateNodeJobVanishedNode(t *testing.T) {
	reg := vn.NewRegistry()
	prog := &fakeProgrammer{}
	node := testNode(t, reg, "net.a")

	j := NewCreateNodeJob(node, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))
	j.Run()

	_, err := reg.RemoveNode("net.a")
	require.NoError(t, err)

	j.Run()
	require.Equal(t, Abort, j.Phase())
	require.Contains(t, j.Result(), "net.a")
	require.Contains(t, j.Result(), "does not exist")
	require.Equal(t, []string{"create net.a"}, prog.Calls())
}

func TestCreateNodeJobReplacedNode(t *testing.T) {
	reg := vn.NewRegistry()
	prog := &fakeProgrammer{}
	node := testNode(t, reg, "net.a")

	j := NewCreateNodeJob(node, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))

	_, err := reg.RemoveNode("net.a")
	require.NoError(t, err)
	testNode(t, reg, "net.a")

	j.Run()
	require.Equal(t, Abort, j.Phase())
	require.Empty(t, prog.Calls())
}

func TestCreateNodeJobProgrammerError(t *testing.T) {
	reg := vn.NewRegistry()
	prog := &fakeProgrammer{err: errors.New("no route to component plant")}
	node := testNode(t, reg, "net.a")

	j := NewCreateNodeJob(node, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))
	j.Run()

	require.Equal(t, Abort, j.Phase())
	require.Equal(t, "no route to component plant", j.Result())
}

func TestJobPanicAborts(t *testing.T) {
	reg := vn.NewRegistry()
	prog := &fakeProgrammer{panic: true}
	node := testNode(t, reg, "net.a")

	j := NewCreateNodeJob(node, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))

	require.NotPanics(t, j.Run)
	require.Equal(t, Abort, j.Phase())
	require.Contains(t, j.Result(), "programmer exploded")
}

func TestTerminalJobIsInert(t *testing.T) {
	reg := vn.NewRegistry()
	prog := &fakeProgrammer{}
	node := testNode(t, reg, "net.a")

	j := NewDeleteNodeJob(node, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))
	rec := &phaseRecorder{}
	j.AddObserver(rec.observe)

	j.Cancel("user cancelled")
	require.Equal(t, Abort, j.Phase())
	require.Equal(t, "user cancelled", j.Result())

	// the node becoming resolvable changes nothing
	require.NoError(t, node.Identity().SetIdentifier(3))
	for i := 0; i < 3; i++ {
		j.Run()
	}
	j.Cancel("again")

	require.Equal(t, Abort, j.Phase())
	require.Equal(t, "user cancelled", j.Result())
	require.Equal(t, 1, rec.count(Abort))
	require.Empty(t, prog.Calls())
}

func TestDeleteNodeJobResolvesIdentifier(t *testing.T) {
	reg := vn.NewRegistry()
	prog := &fakeProgrammer{}
	node := testNode(t, reg, "net.a")

	j := NewDeleteNodeJob(node, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))

	j.Run()
	require.Equal(t, WaitForIdentifier, j.Phase())
	require.Equal(t, []string{"query net.a"}, prog.Calls())

	j.Run()
	require.Equal(t, WaitForIdentifier, j.Phase())

	require.NoError(t, node.Identity().SetIdentifier(9))

	j.Run()
	require.Equal(t, SendDelete, j.Phase())

	j.Run()
	require.Equal(t, Complete, j.Phase())
	require.Equal(t, []string{"query net.a", "delete net.a 9"}, prog.Calls())
}

func TestDeleteNodeJobKnownIdentifier(t *testing.T) {
	reg := vn.NewRegistry()
	prog := &fakeProgrammer{}
	node := testNode(t, reg, "net.a")
	require.NoError(t, node.Identity().SetIdentifier(9))

	j := NewDeleteNodeJob(node, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))

	j.Run()
	require.Equal(t, SendDelete, j.Phase())

	j.Run()
	require.Equal(t, Complete, j.Phase())
	require.Equal(t, []string{"delete net.a 9"}, prog.Calls())
}

func linkFixture(t *testing.T) (*vn.Registry, *vn.Node, *vn.Node) {
	reg := vn.NewRegistry()
	a := testNode(t, reg, "A", vn.VariableSpec{Name: "x", Direction: vn.Output, Type: "int"})
	b := testNode(t, reg, "B", vn.VariableSpec{Name: "y", Direction: vn.Input, Type: "int"})
	return reg, a, b
}

func TestCreateLinkJobHappyPath(t *testing.T) {
	reg, a, b := linkFixture(t)
	prog := &fakeProgrammer{}

	j := NewCreateLinkJob(vn.Link{Source: "A.x", Target: "B.y"}, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))
	rec := &phaseRecorder{}
	j.AddObserver(rec.observe)

	j.Run()
	require.Equal(t, WaitForIdentifiers, j.Phase())
	require.Equal(t, []string{"query A.x", "query B.y"}, prog.Calls())

	x, _ := a.Variable("x")
	y, _ := b.Variable("y")

	require.NoError(t, x.Identity().SetIdentifier(10))
	j.Run()
	require.Equal(t, WaitForIdentifiers, j.Phase())

	require.NoError(t, y.Identity().SetIdentifier(11))
	j.Run()
	require.Equal(t, SendLinkMessage, j.Phase())

	j.Run()
	require.Equal(t, Complete, j.Phase())
	require.Equal(t, []string{"query A.x", "query B.y", "link A.x->B.y"}, prog.Calls())
	require.Equal(t, 1, rec.count(Complete))
	require.Equal(t, vn.Link{Source: "A.x", Target: "B.y"}, j.Link())
}

func TestCreateLinkJobVanishedEndpoint(t *testing.T) {
	reg, _, _ := linkFixture(t)
	prog := &fakeProgrammer{}

	j := NewCreateLinkJob(vn.Link{Source: "A.x", Target: "B.y"}, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))

	j.Run()
	require.Equal(t, WaitForIdentifiers, j.Phase())

	_, err := reg.RemoveNode("A")
	require.NoError(t, err)

	j.Run()
	require.Equal(t, Abort, j.Phase())
	require.Contains(t, j.Result(), "A.x")
	require.Contains(t, j.Result(), "does not exist")

	for _, c := range prog.Calls() {
		require.NotContains(t, c, "link")
	}
}

func TestDeleteLinkJobKnownIdentifiers(t *testing.T) {
	reg, a, b := linkFixture(t)
	prog := &fakeProgrammer{}

	x, _ := a.Variable("x")
	y, _ := b.Variable("y")
	require.NoError(t, x.Identity().SetIdentifier(10))
	require.NoError(t, y.Identity().SetIdentifier(11))

	j := NewDeleteLinkJob(vn.Link{Source: "A.x", Target: "B.y"}, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))
	require.Equal(t, DeleteLinkKind, j.Kind())

	j.Run()
	require.Equal(t, SendLinkMessage, j.Phase())

	j.Run()
	require.Equal(t, Complete, j.Phase())
	require.Equal(t, []string{"unlink A.x->B.y"}, prog.Calls())
}

func TestLinkJobProtocolError(t *testing.T) {
	reg, a, b := linkFixture(t)
	prog := &fakeProgrammer{}

	x, _ := a.Variable("x")
	y, _ := b.Variable("y")
	require.NoError(t, x.Identity().SetIdentifier(10))
	require.NoError(t, y.Identity().SetIdentifier(11))

	j := NewCreateLinkJob(vn.Link{Source: "A.x", Target: "B.y"}, reg, prog, common.NewTestEntry(t, logrus.DebugLevel))
	j.Run()

	prog.err = errors.New("identifier of B.y unknown")
	j.Run()

	require.Equal(t, Abort, j.Phase())
	require.Equal(t, "identifier of B.y unknown", j.Result())
}
