package cluster

import (
	"context"
	"errors"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func int32Ptr(v int32) *int32 { return &v }

func testPod(name string, phase corev1.PodPhase, ready bool, restarts int32) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "processor"},
		Spec: corev1.PodSpec{
			NodeName:   "node-1",
			Containers: []corev1.Container{{Name: "main", Image: "img:1"}},
		},
		Status: corev1.PodStatus{
			Phase: phase,
			ContainerStatuses: []corev1.ContainerStatus{
				{Name: "main", Ready: ready, RestartCount: restarts},
			},
		},
	}
}

func testDeployment(name string, replicas, readyReplicas int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "processor"},
		Spec: appsv1.DeploymentSpec{
			Replicas: int32Ptr(replicas),
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{Name: "app", Image: "registry/app:1.0"},
						{Name: "sidecar", Image: "registry/sidecar:1.0"},
					},
				},
			},
		},
		Status: appsv1.DeploymentStatus{ReadyReplicas: readyReplicas, AvailableReplicas: readyReplicas},
	}
}

func TestListPods(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		testPod("rule-901", corev1.PodRunning, true, 2),
		testPod("tadproc", corev1.PodPending, false, 0),
	)
	c := NewWithClientset(clientset, "processor")

	pods, err := c.ListPods(context.Background())
	if err != nil {
		t.Fatalf("ListPods: %v", err)
	}
	if len(pods) != 2 {
		t.Fatalf("got %d pods, want 2", len(pods))
	}

	byName := map[string]PodInfo{}
	for _, p := range pods {
		byName[p.Name] = p
	}
	running := byName["rule-901"]
	if running.Phase != "Running" || running.Ready != "1/1" || running.Restarts != 2 || running.Node != "node-1" {
		t.Errorf("unexpected pod info: %+v", running)
	}
	if byName["tadproc"].Ready != "0/1" {
		t.Errorf("pending pod ready = %q, want 0/1", byName["tadproc"].Ready)
	}
}

func TestRestartPodDeletesIt(t *testing.T) {
	clientset := fake.NewSimpleClientset(testPod("rule-901", corev1.PodRunning, true, 0))
	c := NewWithClientset(clientset, "processor")

	if err := c.RestartPod(context.Background(), "rule-901"); err != nil {
		t.Fatalf("RestartPod: %v", err)
	}
	if _, err := clientset.CoreV1().Pods("processor").Get(context.Background(), "rule-901", metav1.GetOptions{}); err == nil {
		t.Fatal("pod still exists after restart")
	}

	if err := c.RestartPod(context.Background(), "missing"); err == nil {
		t.Fatal("expected error restarting a missing pod")
	}
}

func TestScaleDeployment(t *testing.T) {
	clientset := fake.NewSimpleClientset(testDeployment("tms", 1, 1))
	c := NewWithClientset(clientset, "processor")

	if err := c.ScaleDeployment(context.Background(), "tms", 3); err != nil {
		t.Fatalf("ScaleDeployment: %v", err)
	}
	d, err := clientset.AppsV1().Deployments("processor").Get(context.Background(), "tms", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Spec.Replicas == nil || *d.Spec.Replicas != 3 {
		t.Fatalf("replicas = %v, want 3", d.Spec.Replicas)
	}

	for _, bad := range []int32{-1, 11, 100} {
		if err := c.ScaleDeployment(context.Background(), "tms", bad); !errors.Is(err, ErrReplicasOutOfRange) {
			t.Errorf("replicas=%d: err = %v, want ErrReplicasOutOfRange", bad, err)
		}
	}
}

func TestRestartDeploymentPatchesAnnotation(t *testing.T) {
	clientset := fake.NewSimpleClientset(testDeployment("tms", 1, 1))
	c := NewWithClientset(clientset, "processor")

	if err := c.RestartDeployment(context.Background(), "tms"); err != nil {
		t.Fatalf("RestartDeployment: %v", err)
	}
	d, err := clientset.AppsV1().Deployments("processor").Get(context.Background(), "tms", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Spec.Template.Annotations[restartAnnotation] == "" {
		t.Fatalf("restart annotation missing: %v", d.Spec.Template.Annotations)
	}
}

func TestSetDeploymentImage(t *testing.T) {
	clientset := fake.NewSimpleClientset(testDeployment("tms", 1, 1))
	c := NewWithClientset(clientset, "processor")

	// Named container.
	if err := c.SetDeploymentImage(context.Background(), "tms", "registry/sidecar:2.0", "sidecar"); err != nil {
		t.Fatalf("SetDeploymentImage: %v", err)
	}
	d, _ := clientset.AppsV1().Deployments("processor").Get(context.Background(), "tms", metav1.GetOptions{})
	if got := d.Spec.Template.Spec.Containers[1].Image; got != "registry/sidecar:2.0" {
		t.Errorf("sidecar image = %q", got)
	}
	if got := d.Spec.Template.Spec.Containers[0].Image; got != "registry/app:1.0" {
		t.Errorf("app image changed unexpectedly: %q", got)
	}

	// Empty name targets the first container.
	if err := c.SetDeploymentImage(context.Background(), "tms", "registry/app:2.0", ""); err != nil {
		t.Fatalf("SetDeploymentImage first container: %v", err)
	}
	d, _ = clientset.AppsV1().Deployments("processor").Get(context.Background(), "tms", metav1.GetOptions{})
	if got := d.Spec.Template.Spec.Containers[0].Image; got != "registry/app:2.0" {
		t.Errorf("app image = %q", got)
	}

	if err := c.SetDeploymentImage(context.Background(), "tms", "x", "nope"); !errors.Is(err, ErrContainerNotFound) {
		t.Errorf("unknown container: err = %v", err)
	}
}

func TestListServicesAndEvents(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "tms", Namespace: "processor"},
			Spec: corev1.ServiceSpec{
				Type:      corev1.ServiceTypeClusterIP,
				ClusterIP: "10.0.0.5",
				Ports:     []corev1.ServicePort{{Port: 5000, Protocol: corev1.ProtocolTCP}},
			},
		},
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "ev1", Namespace: "processor"},
			Type:           "Warning",
			Reason:         "BackOff",
			Message:        "restarting failed container",
			Count:          4,
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "rule-901"},
		},
	)
	c := NewWithClientset(clientset, "processor")

	services, err := c.ListServices(context.Background())
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) != 1 || services[0].ClusterIP != "10.0.0.5" || services[0].Ports[0] != "5000/TCP" {
		t.Fatalf("unexpected services: %+v", services)
	}

	events, err := c.ListEvents(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Reason != "BackOff" || events[0].Object != "Pod/rule-901" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestOverview(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		testPod("a", corev1.PodRunning, true, 0),
		testPod("b", corev1.PodPending, false, 0),
		testDeployment("ready", 2, 2),
		testDeployment("degraded", 2, 1),
		&corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: "svc", Namespace: "processor"}},
	)
	c := NewWithClientset(clientset, "processor")

	overview, err := c.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	want := Overview{
		Namespace: "processor", PodsTotal: 2, PodsRunning: 1,
		Deployments: 2, DeploymentsReady: 1, Services: 1,
	}
	if *overview != want {
		t.Fatalf("overview = %+v, want %+v", *overview, want)
	}
}

func TestPodLogs(t *testing.T) {
	clientset := fake.NewSimpleClientset(testPod("rule-901", corev1.PodRunning, true, 0))
	c := NewWithClientset(clientset, "processor")

	// The fake clientset serves a canned body; assert the call path works.
	logs, err := c.PodLogs(context.Background(), "rule-901", LogOptions{TailLines: 10})
	if err != nil {
		t.Fatalf("PodLogs: %v", err)
	}
	if logs == "" {
		t.Fatal("expected non-empty log body")
	}
}
