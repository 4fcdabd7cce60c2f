package scenegraph

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

type recordingEngine struct {
	events *[]string
	fail   bool
}

func (e *recordingEngine) InitModel(m *Model) error {
	if e.fail {
		return errors.New("engine down")
	}
	*e.events = append(*e.events, "engine:"+m.Name)
	return nil
}

type recordingPublisher struct {
	events *[]string
	descs  []JointDesc
}

func (p *recordingPublisher) PublishJoint(d JointDesc) {
	*p.events = append(*p.events, "publish:"+d.Name)
	p.descs = append(p.descs, d)
}

func testModel() *Model {
	return &Model{
		Name: "robot",
		Links: []*Link{
			{Name: "base"},
			{Name: "arm"},
		},
		Joints: []*Joint{
			{Name: "shoulder", Type: "revolute", Parent: "base", Child: "arm", Axis: mgl32.Vec3{0, 0, 1}},
		},
	}
}

func TestModelInitOrder(t *testing.T) {
	var events []string
	engine := &recordingEngine{events: &events}
	pub := &recordingPublisher{events: &events}

	m := testModel()
	m.Nested = []*Model{{Name: "gripper"}}
	if err := m.Init(engine, pub, nil); err != nil {
		t.Fatalf("Init: %v", err)
	}

	want := []string{"engine:gripper", "engine:robot", "publish:shoulder"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	for _, l := range m.Links {
		if !l.Initialized() {
			t.Errorf("link %q not initialized", l.Name)
		}
	}
}

func TestModelPublishesOnlyAfterJointInit(t *testing.T) {
	var events []string
	engine := &recordingEngine{events: &events}
	pub := &recordingPublisher{events: &events}

	m := testModel()
	// A joint missing its child link must stop initialization before any
	// description leaves the process.
	m.Joints = append(m.Joints, &Joint{Name: "bad", Parent: "base"})

	if err := m.Init(engine, pub, nil); err == nil {
		t.Fatal("expected joint init failure")
	}
	if len(pub.descs) != 0 {
		t.Errorf("published %d joints despite a failed init", len(pub.descs))
	}
}

func TestModelEngineFailure(t *testing.T) {
	var events []string
	engine := &recordingEngine{events: &events, fail: true}
	pub := &recordingPublisher{events: &events}

	m := testModel()
	if err := m.Init(engine, pub, nil); err == nil {
		t.Fatal("expected engine failure to propagate")
	}
	if len(pub.descs) != 0 {
		t.Error("nothing may be published when the engine rejects the model")
	}
	if m.Joints[0].resolved {
		t.Error("joints must not initialize before the engine state exists")
	}
}

func TestModelRecordsInitialPose(t *testing.T) {
	m := testModel()
	m.Pose = Pose{Pos: mgl32.Vec3{1, 2, 3}, Rot: mgl32.QuatIdent()}

	if err := m.Init(nil, nil, nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	m.Pose.Pos = mgl32.Vec3{9, 9, 9}
	if m.InitialPose().Pos != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("initial pose = %v, want the pose at init time", m.InitialPose().Pos)
	}
}

func TestJointDesc(t *testing.T) {
	j := &Joint{Name: "shoulder", Type: "revolute", Parent: "base", Child: "arm", Axis: mgl32.Vec3{0, 0, 1}}
	if err := j.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	d := j.Desc()
	if d.Name != "shoulder" || d.Parent != "base" || d.Child != "arm" {
		t.Errorf("desc = %+v", d)
	}
}
