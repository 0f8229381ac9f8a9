package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postboard/blog-api/internal/core/ports"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service ports.PostService
}

func NewPostHandler(service ports.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// List handles GET /posts.
//
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Param        email   query     string  false  "Author email"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Param        offset  query     int     false  "Rows to skip"
// @Success      200     {array}   postResponse
// @Router       /posts [get]
func (h *PostHandler) List(c echo.Context) error {
	var q listPostsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	posts, err := h.service.List(c.Request().Context(), ports.ListPostsFilter{
		AuthorEmail: q.Email,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		return err
	}

	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /posts/:id.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  postResponse
// @Failure      404  {object}  errorResponse
// @Router       /posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	post, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(post))
}

// Create handles POST /posts. Retries carrying the same Idempotency-Key
// return the original post with 200 instead of 201.
//
// @Summary      Publish a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Client-generated key for safe retries"
// @Param        body             body      createPostRequest  true   "Post"
// @Success      201              {object}  postResponse
// @Success      200              {object}  postResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	author, err := currentAccount(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Create(c.Request().Context(), author, ports.CreatePostInput{
		Title:          req.Title,
		Content:        req.Content,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	c.Response().Header().Set(echo.HeaderLocation, "/posts/"+result.Post.ID.String())
	return c.JSON(status, toPostResponse(result.Post))
}

// Delete handles DELETE /posts/:id.
//
// @Summary      Delete a post
// @Tags         posts
// @Security     BearerAuth
// @Param        id   path  string  true  "Post ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	actor, err := currentAccount(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

