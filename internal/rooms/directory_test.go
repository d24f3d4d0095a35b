package rooms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func directoryServer(t *testing.T) (*Directory, *[]string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var deleted []string

	router.GET("/api/rooms/", func(c *gin.Context) {
		c.JSON(http.StatusOK, []Room{{ID: 1, Name: "general"}, {ID: 2, Name: "random"}})
	})
	router.POST("/api/rooms/create/", func(c *gin.Context) {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Room name is required"})
			return
		}
		c.JSON(http.StatusOK, Room{ID: 3, Name: body.Name})
	})
	router.DELETE("/api/rooms/:name/delete/", func(c *gin.Context) {
		name := c.Param("name")
		if name == "missing" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		deleted = append(deleted, name)
		c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return NewDirectory(srv.URL, nil), &deleted
}

func TestDirectoryList(t *testing.T) {
	dir, _ := directoryServer(t)
	all, err := dir.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Name != "general" {
		t.Fatalf("unexpected rooms: %+v", all)
	}
}

func TestDirectoryCreate(t *testing.T) {
	dir, _ := directoryServer(t)
	r, err := dir.Create(context.Background(), "tea")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Name != "tea" || r.ID != 3 {
		t.Fatalf("unexpected room: %+v", r)
	}

	if _, err := dir.Create(context.Background(), "  "); err == nil {
		t.Fatal("blank room name should be rejected locally")
	}
}

func TestDirectoryDelete(t *testing.T) {
	dir, deleted := directoryServer(t)
	if err := dir.Delete(context.Background(), "tea"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(*deleted) != 1 || (*deleted)[0] != "tea" {
		t.Fatalf("delete never reached the server: %v", *deleted)
	}

	err := dir.Delete(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing room")
	}
}
