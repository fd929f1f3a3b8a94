/**
 * @description
 * System handlers: Kubernetes operations over the processor namespace plus
 * the schema-cache reset. The gateway stays a passthrough; it validates the
 * obvious (replica bounds, required params) and relays everything else.
 *
 * @dependencies
 * - errors, log, net/http, strconv: Standard Go libraries.
 * - internal/cluster: The namespace-scoped Kubernetes client.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 */

package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/walinzi/tps-gateway/internal/cluster"
)

// requireCluster answers 503 when no Kubernetes client could be built.
func (h *Handlers) requireCluster(w http.ResponseWriter) bool {
	if h.cluster == nil {
		h.writeError(w, http.StatusServiceUnavailable, "Cluster operations unavailable: no Kubernetes credentials")
		return false
	}
	return true
}

// ListPodsHandler handles GET /api/v1/system/pods.
func (h *Handlers) ListPodsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireCluster(w) {
		return
	}
	pods, err := h.cluster.ListPods(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_pods err=%v", err)
		h.writeError(w, http.StatusBadGateway, "Failed to list pods")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"namespace": h.cluster.Namespace(), "pods": pods})
}

// PodLogsHandler handles GET /api/v1/system/pods/{pod}/logs.
func (h *Handlers) PodLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireCluster(w) {
		return
	}
	pod := chi.URLParam(r, "pod")
	opts := cluster.LogOptions{
		Container: r.URL.Query().Get("container"),
		TailLines: int64(intQueryParam(r, "tail_lines", 0)),
		Previous:  r.URL.Query().Get("previous") == "true",
	}

	logs, err := h.cluster.PodLogs(r.Context(), pod, opts)
	if err != nil {
		log.Printf("level=error component=api endpoint=pod_logs pod=%s err=%v", pod, err)
		h.writeError(w, http.StatusBadGateway, "Failed to fetch logs for pod "+pod)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"pod": pod, "logs": logs})
}

// RestartPodHandler handles POST /api/v1/system/pods/{pod}/restart.
func (h *Handlers) RestartPodHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireCluster(w) {
		return
	}
	pod := chi.URLParam(r, "pod")
	if err := h.cluster.RestartPod(r.Context(), pod); err != nil {
		log.Printf("level=error component=api endpoint=restart_pod pod=%s err=%v", pod, err)
		h.writeError(w, http.StatusBadGateway, "Failed to restart pod "+pod)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Pod " + pod + " deleted; controller will recreate it"})
}

// ListDeploymentsHandler handles GET /api/v1/system/deployments.
func (h *Handlers) ListDeploymentsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireCluster(w) {
		return
	}
	deployments, err := h.cluster.ListDeployments(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_deployments err=%v", err)
		h.writeError(w, http.StatusBadGateway, "Failed to list deployments")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"namespace": h.cluster.Namespace(), "deployments": deployments})
}

// ScaleDeploymentHandler handles POST /api/v1/system/deployments/{deployment}/scale.
func (h *Handlers) ScaleDeploymentHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireCluster(w) {
		return
	}
	name := chi.URLParam(r, "deployment")
	replicas, err := strconv.Atoi(r.URL.Query().Get("replicas"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "replicas query parameter must be an integer")
		return
	}

	if err := h.cluster.ScaleDeployment(r.Context(), name, int32(replicas)); err != nil {
		if errors.Is(err, cluster.ErrReplicasOutOfRange) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=scale_deployment deployment=%s err=%v", name, err)
		h.writeError(w, http.StatusBadGateway, "Failed to scale deployment "+name)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"deployment": name, "replicas": replicas})
}

// RestartDeploymentHandler handles POST /api/v1/system/deployments/{deployment}/restart.
func (h *Handlers) RestartDeploymentHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireCluster(w) {
		return
	}
	name := chi.URLParam(r, "deployment")
	if err := h.cluster.RestartDeployment(r.Context(), name); err != nil {
		log.Printf("level=error component=api endpoint=restart_deployment deployment=%s err=%v", name, err)
		h.writeError(w, http.StatusBadGateway, "Failed to restart deployment "+name)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Rolling restart triggered for " + name})
}

// SetDeploymentImageHandler handles PATCH /api/v1/system/deployments/{deployment}/image.
func (h *Handlers) SetDeploymentImageHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireCluster(w) {
		return
	}
	name := chi.URLParam(r, "deployment")
	image := r.URL.Query().Get("image")
	if image == "" {
		h.writeError(w, http.StatusBadRequest, "image query parameter is required")
		return
	}
	containerName := r.URL.Query().Get("container_name")

	if err := h.cluster.SetDeploymentImage(r.Context(), name, image, containerName); err != nil {
		if errors.Is(err, cluster.ErrContainerNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=set_image deployment=%s err=%v", name, err)
		h.writeError(w, http.StatusBadGateway, "Failed to update image for "+name)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"deployment": name, "image": image})
}

// ListServicesHandler handles GET /api/v1/system/services.
func (h *Handlers) ListServicesHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireCluster(w) {
		return
	}
	services, err := h.cluster.ListServices(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_services err=%v", err)
		h.writeError(w, http.StatusBadGateway, "Failed to list services")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"namespace": h.cluster.Namespace(), "services": services})
}

// ListEventsHandler handles GET /api/v1/system/events.
func (h *Handlers) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireCluster(w) {
		return
	}
	events, err := h.cluster.ListEvents(r.Context(), intQueryParam(r, "limit", 50))
	if err != nil {
		log.Printf("level=error component=api endpoint=list_events err=%v", err)
		h.writeError(w, http.StatusBadGateway, "Failed to list events")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"namespace": h.cluster.Namespace(), "events": events})
}

// ClusterOverviewHandler handles GET /api/v1/system/overview.
func (h *Handlers) ClusterOverviewHandler(w http.ResponseWriter, r *http.Request) {
	if !h.requireCluster(w) {
		return
	}
	overview, err := h.cluster.Overview(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=overview err=%v", err)
		h.writeError(w, http.StatusBadGateway, "Failed to build cluster overview")
		return
	}
	h.writeJSON(w, http.StatusOK, overview)
}

// InvalidateCacheHandler handles POST /api/v1/system/cache/invalidate. The
// next read on each store re-discovers its table.
func (h *Handlers) InvalidateCacheHandler(w http.ResponseWriter, r *http.Request) {
	h.evals.InvalidateSchemaCache()
	h.events.InvalidateSchemaCache()
	log.Printf("level=info component=api endpoint=cache_invalidate msg=\"schema caches reset\"")
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Schema discovery caches invalidated"})
}
