/**
 * @description
 * Thin Kubernetes operations client for the processor namespace. The gateway
 * does not interpret cluster state; it lists, restarts, scales, and fetches
 * logs on behalf of operators and passes the results through. All operations
 * are scoped to a single configured namespace.
 *
 * @dependencies
 * - k8s.io/client-go: Kubernetes API client (clientset, rest, clientcmd).
 * - k8s.io/api, k8s.io/apimachinery: Resource and meta types.
 */

package cluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const (
	restartAnnotation = "tps-gateway/restartedAt"

	maxReplicas    = 10
	defaultTail    = 100
	maxTail        = 5000
	maxEventsLimit = 200
)

var (
	ErrReplicasOutOfRange = errors.New("replicas must be between 0 and 10")
	ErrContainerNotFound  = errors.New("container not found in deployment")
)

// PodInfo is the operator-facing view of a pod.
type PodInfo struct {
	Name      string `json:"name"`
	Phase     string `json:"phase"`
	Ready     string `json:"ready"`
	Restarts  int32  `json:"restarts"`
	Node      string `json:"node"`
	StartedAt string `json:"started_at,omitempty"`
}

// DeploymentInfo is the operator-facing view of a deployment.
type DeploymentInfo struct {
	Name              string   `json:"name"`
	Replicas          int32    `json:"replicas"`
	ReadyReplicas     int32    `json:"ready_replicas"`
	AvailableReplicas int32    `json:"available_replicas"`
	Images            []string `json:"images"`
}

// ServiceInfo is the operator-facing view of a service.
type ServiceInfo struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	ClusterIP string   `json:"cluster_ip"`
	Ports     []string `json:"ports"`
}

// EventInfo is one namespace event.
type EventInfo struct {
	Type     string `json:"type"`
	Reason   string `json:"reason"`
	Object   string `json:"object"`
	Message  string `json:"message"`
	Count    int32  `json:"count"`
	LastSeen string `json:"last_seen,omitempty"`
}

// Overview summarizes namespace health at a glance.
type Overview struct {
	Namespace        string `json:"namespace"`
	PodsTotal        int    `json:"pods_total"`
	PodsRunning      int    `json:"pods_running"`
	Deployments      int    `json:"deployments"`
	DeploymentsReady int    `json:"deployments_ready"`
	Services         int    `json:"services"`
}

// LogOptions narrows a pod log request.
type LogOptions struct {
	Container string
	TailLines int64
	Previous  bool
}

// Client wraps a Kubernetes clientset scoped to one namespace.
type Client struct {
	clientset kubernetes.Interface
	namespace string
}

// New builds a client from in-cluster credentials or a kubeconfig file.
func New(inCluster bool, kubeconfigPath, namespace string) (*Client, error) {
	var (
		cfg *rest.Config
		err error
	)
	if inCluster {
		cfg, err = rest.InClusterConfig()
	} else {
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		if kubeconfigPath != "" {
			rules.ExplicitPath = kubeconfigPath
		}
		cfg, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}
	return NewWithClientset(clientset, namespace), nil
}

// NewWithClientset wraps an existing clientset. Used by tests with a fake.
func NewWithClientset(clientset kubernetes.Interface, namespace string) *Client {
	return &Client{clientset: clientset, namespace: namespace}
}

// Namespace returns the namespace this client operates in.
func (c *Client) Namespace() string {
	return c.namespace
}

// ListPods returns the pods in the namespace.
func (c *Client) ListPods(ctx context.Context) ([]PodInfo, error) {
	list, err := c.clientset.CoreV1().Pods(c.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	pods := make([]PodInfo, 0, len(list.Items))
	for _, pod := range list.Items {
		ready := 0
		var restarts int32
		for _, cs := range pod.Status.ContainerStatuses {
			if cs.Ready {
				ready++
			}
			restarts += cs.RestartCount
		}
		info := PodInfo{
			Name:     pod.Name,
			Phase:    string(pod.Status.Phase),
			Ready:    fmt.Sprintf("%d/%d", ready, len(pod.Spec.Containers)),
			Restarts: restarts,
			Node:     pod.Spec.NodeName,
		}
		if pod.Status.StartTime != nil {
			info.StartedAt = pod.Status.StartTime.UTC().Format(time.RFC3339)
		}
		pods = append(pods, info)
	}
	return pods, nil
}

// PodLogs streams and returns logs for one pod.
func (c *Client) PodLogs(ctx context.Context, podName string, opts LogOptions) (string, error) {
	tail := opts.TailLines
	if tail <= 0 {
		tail = defaultTail
	}
	if tail > maxTail {
		tail = maxTail
	}

	req := c.clientset.CoreV1().Pods(c.namespace).GetLogs(podName, &corev1.PodLogOptions{
		Container: opts.Container,
		TailLines: &tail,
		Previous:  opts.Previous,
	})
	stream, err := req.Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch logs for pod %s: %w", podName, err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return "", fmt.Errorf("failed to read logs for pod %s: %w", podName, err)
	}
	return string(data), nil
}

// RestartPod deletes a pod; its controller brings a replacement up.
func (c *Client) RestartPod(ctx context.Context, podName string) error {
	if err := c.clientset.CoreV1().Pods(c.namespace).Delete(ctx, podName, metav1.DeleteOptions{}); err != nil {
		return fmt.Errorf("failed to delete pod %s: %w", podName, err)
	}
	return nil
}

// ListDeployments returns the deployments in the namespace.
func (c *Client) ListDeployments(ctx context.Context) ([]DeploymentInfo, error) {
	list, err := c.clientset.AppsV1().Deployments(c.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	deployments := make([]DeploymentInfo, 0, len(list.Items))
	for _, d := range list.Items {
		var replicas int32
		if d.Spec.Replicas != nil {
			replicas = *d.Spec.Replicas
		}
		images := make([]string, 0, len(d.Spec.Template.Spec.Containers))
		for _, ctr := range d.Spec.Template.Spec.Containers {
			images = append(images, ctr.Image)
		}
		deployments = append(deployments, DeploymentInfo{
			Name:              d.Name,
			Replicas:          replicas,
			ReadyReplicas:     d.Status.ReadyReplicas,
			AvailableReplicas: d.Status.AvailableReplicas,
			Images:            images,
		})
	}
	return deployments, nil
}

// ScaleDeployment sets a deployment's replica count, capped at 10 so an
// operator typo cannot flood the cluster.
func (c *Client) ScaleDeployment(ctx context.Context, name string, replicas int32) error {
	if replicas < 0 || replicas > maxReplicas {
		return ErrReplicasOutOfRange
	}

	deployments := c.clientset.AppsV1().Deployments(c.namespace)
	d, err := deployments.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get deployment %s: %w", name, err)
	}
	d.Spec.Replicas = &replicas
	if _, err := deployments.Update(ctx, d, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to scale deployment %s: %w", name, err)
	}
	return nil
}

// RestartDeployment triggers a rolling restart by patching a pod-template
// annotation, the same mechanism kubectl rollout restart uses.
func (c *Client) RestartDeployment(ctx context.Context, name string) error {
	patch := fmt.Sprintf(
		`{"spec":{"template":{"metadata":{"annotations":{%q:%q}}}}}`,
		restartAnnotation, time.Now().UTC().Format(time.RFC3339),
	)
	_, err := c.clientset.AppsV1().Deployments(c.namespace).Patch(
		ctx, name, types.StrategicMergePatchType, []byte(patch), metav1.PatchOptions{},
	)
	if err != nil {
		return fmt.Errorf("failed to restart deployment %s: %w", name, err)
	}
	return nil
}

// SetDeploymentImage updates one container's image. An empty containerName
// targets the first container.
func (c *Client) SetDeploymentImage(ctx context.Context, name, image, containerName string) error {
	deployments := c.clientset.AppsV1().Deployments(c.namespace)
	d, err := deployments.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get deployment %s: %w", name, err)
	}
	if len(d.Spec.Template.Spec.Containers) == 0 {
		return ErrContainerNotFound
	}

	updated := false
	for i := range d.Spec.Template.Spec.Containers {
		if containerName == "" || d.Spec.Template.Spec.Containers[i].Name == containerName {
			d.Spec.Template.Spec.Containers[i].Image = image
			updated = true
			break
		}
	}
	if !updated {
		return ErrContainerNotFound
	}

	if _, err := deployments.Update(ctx, d, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update deployment %s image: %w", name, err)
	}
	return nil
}

// ListServices returns the services in the namespace.
func (c *Client) ListServices(ctx context.Context) ([]ServiceInfo, error) {
	list, err := c.clientset.CoreV1().Services(c.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	services := make([]ServiceInfo, 0, len(list.Items))
	for _, svc := range list.Items {
		ports := make([]string, 0, len(svc.Spec.Ports))
		for _, p := range svc.Spec.Ports {
			ports = append(ports, fmt.Sprintf("%d/%s", p.Port, p.Protocol))
		}
		services = append(services, ServiceInfo{
			Name:      svc.Name,
			Type:      string(svc.Spec.Type),
			ClusterIP: svc.Spec.ClusterIP,
			Ports:     ports,
		})
	}
	return services, nil
}

// ListEvents returns recent namespace events, newest last as the API yields
// them, capped at limit.
func (c *Client) ListEvents(ctx context.Context, limit int) ([]EventInfo, error) {
	if limit <= 0 || limit > maxEventsLimit {
		limit = maxEventsLimit
	}
	list, err := c.clientset.CoreV1().Events(c.namespace).List(ctx, metav1.ListOptions{Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]EventInfo, 0, len(list.Items))
	for _, ev := range list.Items {
		if len(events) >= limit {
			break
		}
		info := EventInfo{
			Type:    ev.Type,
			Reason:  ev.Reason,
			Object:  fmt.Sprintf("%s/%s", ev.InvolvedObject.Kind, ev.InvolvedObject.Name),
			Message: ev.Message,
			Count:   ev.Count,
		}
		if !ev.LastTimestamp.IsZero() {
			info.LastSeen = ev.LastTimestamp.UTC().Format(time.RFC3339)
		}
		events = append(events, info)
	}
	return events, nil
}

// Overview aggregates pod, deployment, and service counts.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	pods, err := c.ListPods(ctx)
	if err != nil {
		return nil, err
	}
	deployments, err := c.ListDeployments(ctx)
	if err != nil {
		return nil, err
	}
	services, err := c.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		Namespace:   c.namespace,
		PodsTotal:   len(pods),
		Deployments: len(deployments),
		Services:    len(services),
	}
	for _, pod := range pods {
		if pod.Phase == string(corev1.PodRunning) {
			overview.PodsRunning++
		}
	}
	for _, d := range deployments {
		if d.Replicas > 0 && d.ReadyReplicas == d.Replicas {
			overview.DeploymentsReady++
		}
	}
	return overview, nil
}
