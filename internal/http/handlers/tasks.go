package handlers

import (
	"net/http"
	"strconv"
	"time"

	"taskflow/internal/domain"

	"github.com/gin-gonic/gin"
)

type CreateTaskRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	DueDate     string   `json:"dueDate"`
	AssignedTo  int64    `json:"assignedTo" binding:"required"`
	Tags        []string `json:"tags"`
}

// UpdateTaskRequest is a partial update: absent fields keep their prior
// value. An explicit empty dueDate clears the date.
type UpdateTaskRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	Priority    *string   `json:"priority"`
	DueDate     *string   `json:"dueDate"`
	AssignedTo  *int64    `json:"assignedTo"`
	Tags        *[]string `json:"tags"`
}

func (h *Handler) CreateTask(c *gin.Context) {
	actor, err := h.currentUser(c.Request.Context(), c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": ErrCodeUnauthorized})
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "code": ErrCodeInvalidRequest})
		return
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		writeError(c, err)
		return
	}

	task := &domain.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.Status(req.Status),
		Priority:    domain.Priority(req.Priority),
		DueDate:     due,
		AssignedTo:  req.AssignedTo,
		Tags:        req.Tags,
	}

	created, err := h.Tasks.CreateTask(c.Request.Context(), actor, task)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
}

func (h *Handler) ListTasks(c *gin.Context) {
	actor, err := h.currentUser(c.Request.Context(), c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": ErrCodeUnauthorized})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	filter := domain.TaskFilter{
		Status:   domain.Status(c.Query("status")),
		Priority: domain.Priority(c.Query("priority")),
		Search:   c.Query("search"),
		Limit:    limit,
	}

	tasks, total, pages, err := h.Tasks.ListTasks(c.Request.Context(), actor, filter, page)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(tasks),
		"total":   total,
		"pages":   pages,
		"data":    tasks,
	})
}

func (h *Handler) GetTask(c *gin.Context) {
	actor, err := h.currentUser(c.Request.Context(), c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": ErrCodeUnauthorized})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id", "code": ErrCodeInvalidRequest})
		return
	}

	task, err := h.Tasks.GetTask(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": task})
}

func (h *Handler) UpdateTask(c *gin.Context) {
	actor, err := h.currentUser(c.Request.Context(), c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": ErrCodeUnauthorized})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id", "code": ErrCodeInvalidRequest})
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "code": ErrCodeInvalidRequest})
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeError(c, err)
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update", "code": ErrCodeInvalidRequest})
		return
	}

	task, err := h.Tasks.UpdateTask(c.Request.Context(), actor, id, patch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": task})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	actor, err := h.currentUser(c.Request.Context(), c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": ErrCodeUnauthorized})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id", "code": ErrCodeInvalidRequest})
		return
	}

	if err := h.Tasks.DeleteTask(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GetStats(c *gin.Context) {
	actor, err := h.currentUser(c.Request.Context(), c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": ErrCodeUnauthorized})
		return
	}

	counts, err := h.Tasks.GetStats(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"byStatus": counts},
	})
}

func (h *Handler) GetTaskActivity(c *gin.Context) {
	actor, err := h.currentUser(c.Request.Context(), c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": ErrCodeUnauthorized})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id", "code": ErrCodeInvalidRequest})
		return
	}

	// the task must exist and be readable by the actor
	if _, err := h.Tasks.GetTask(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}

	entries, err := h.Activity.GetByTaskID(c.Request.Context(), id, 100)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}

func (r *UpdateTaskRequest) toPatch() (*domain.TaskPatch, error) {
	patch := &domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  r.AssignedTo,
		Tags:        r.Tags,
	}
	if r.Status != nil {
		s := domain.Status(*r.Status)
		patch.Status = &s
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		patch.Priority = &p
	}
	if r.DueDate != nil {
		if *r.DueDate == "" {
			patch.ClearDue = true
		} else {
			due, err := parseDueDate(*r.DueDate)
			if err != nil {
				return nil, err
			}
			patch.DueDate = due
		}
	}
	return patch, nil
}

// parseDueDate accepts RFC3339 or a bare date. Past dates are not
// rejected; that is a UI concern.
func parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, domain.NewValidationError("dueDate", "unparseable date")
}
