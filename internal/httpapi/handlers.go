package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/roster"
)

type handler struct {
	att    *attendance.Service
	roster *roster.Service
	log    *zap.Logger
}

type markRequest struct {
	Student string `json:"student" binding:"required"`
	Present bool   `json:"present"`
}

type submitRequest struct {
	CourseID  string        `json:"courseId" binding:"required"`
	Date      string        `json:"date" binding:"required,isodate"`
	Students  []markRequest `json:"students" binding:"dive"`
	TeacherID string        `json:"teacherId"`
}

type editRequest struct {
	Date      string        `json:"date" binding:"required,isodate"`
	Students  []markRequest `json:"students" binding:"dive"`
	TeacherID string        `json:"teacherId"`
}

func toMarks(in []markRequest) []attendance.Mark {
	marks := make([]attendance.Mark, len(in))
	for i, m := range in {
		marks[i] = attendance.Mark{StudentID: m.Student, Present: m.Present}
	}
	return marks
}

// teacherID falls back to the caller when the body names no teacher.
func teacherID(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if claims, ok := auth.ClaimsFrom(c); ok {
		return claims.Subject
	}
	return ""
}

func (h *handler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	rec, err := h.att.Submit(c.Request.Context(), attendance.Submission{
		CourseID:  req.CourseID,
		Date:      req.Date,
		Students:  toMarks(req.Students),
		TeacherID: teacherID(c, req.TeacherID),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handler) edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	rec, err := h.att.Edit(c.Request.Context(), attendance.Submission{
		CourseID:  c.Param("courseId"),
		Date:      req.Date,
		Students:  toMarks(req.Students),
		TeacherID: teacherID(c, req.TeacherID),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handler) listByCourse(c *gin.Context) {
	records, err := h.att.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *handler) sheet(c *gin.Context) {
	sheet, err := h.att.Sheet(c.Request.Context(), c.Param("courseId"), c.Query("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

func (h *handler) report(c *gin.Context) {
	report, err := h.att.CourseReport(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handler) studentSummary(c *gin.Context) {
	studentID := c.Param("id")
	if claims, _ := auth.ClaimsFrom(c); !claims.CanViewStudent(studentID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}
	sum, err := h.att.Summarize(c.Request.Context(), studentID, c.Param("courseId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *handler) listCourses(c *gin.Context) {
	courses, err := h.roster.ListCourses(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if courses == nil {
		courses = []roster.Course{}
	}
	c.JSON(http.StatusOK, courses)
}

func (h *handler) getCourse(c *gin.Context) {
	detail, err := h.roster.CourseDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *handler) listStudents(c *gin.Context) {
	students, err := h.roster.ListStudents(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if students == nil {
		students = []roster.Student{}
	}
	c.JSON(http.StatusOK, students)
}

func (h *handler) getStudent(c *gin.Context) {
	id := c.Param("id")
	if claims, _ := auth.ClaimsFrom(c); !claims.CanViewStudent(id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}
	detail, err := h.roster.StudentDetail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *handler) listTeachers(c *gin.Context) {
	teachers, err := h.roster.ListTeachers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if teachers == nil {
		teachers = []roster.Teacher{}
	}
	c.JSON(http.StatusOK, teachers)
}

func (h *handler) getTeacher(c *gin.Context) {
	detail, err := h.roster.TeacherDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
