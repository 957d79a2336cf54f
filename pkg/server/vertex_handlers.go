// Copyright 2025 Certen Protocol
//
// Vertex CRUD + list handlers implementing spec §6's REST surface.
// Grounded on the teacher's handler shape (decode -> call service ->
// map error -> encode) throughout pkg/server/proof_handlers.go.

package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/certen/aig/pkg/audit"
	"github.com/certen/aig/pkg/query"
	"github.com/certen/aig/pkg/vertex"
)

func shapeFromAccept(c echo.Context) query.Shape {
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "application/ld+json") {
		return query.ShapeJSONLD
	}
	return query.ShapePlain
}

func identities(c echo.Context) (userIdentity, nodeIdentity string, err error) {
	userIdentity = c.Request().Header.Get("X-User-Identity")
	nodeIdentity = c.Request().Header.Get("X-Node-Identity")
	if userIdentity == "" || nodeIdentity == "" {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "X-User-Identity and X-Node-Identity headers are required")
	}
	return userIdentity, nodeIdentity, nil
}

// handleCreate implements POST /<base>/.
func (s *Server) handleCreate(c echo.Context) error {
	userIdentity, nodeIdentity, err := identities(c)
	if err != nil {
		return err
	}

	var desired audit.DesiredVertex
	if err := c.Bind(&desired); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	urn, err := s.engine.Create(c.Request().Context(), desired, userIdentity, nodeIdentity)
	if err != nil {
		return writeEngineError(c, err)
	}

	c.Response().Header().Set(echo.HeaderLocation, urn)
	return c.JSON(http.StatusCreated, map[string]string{"id": urn})
}

// handleGet implements GET /<base>/:id.
func (s *Server) handleGet(c echo.Context) error {
	id := c.Param("id")

	opts := audit.GetOptions{
		IncludeDeleted:    c.QueryParam("includeDeleted") == "true",
		IncludeChangesets: c.QueryParam("includeChangesets") == "true",
		VerifyDepth:       audit.VerifyDepth(c.QueryParam("verifySignatureDepth")),
	}
	if opts.VerifyDepth == "" {
		opts.VerifyDepth = audit.VerifyNone
	}

	proj, err := s.engine.Get(c.Request().Context(), id, opts)
	if err != nil {
		return writeEngineError(c, err)
	}

	var properties []string
	if raw := c.QueryParam("properties"); raw != "" {
		properties = strings.Split(raw, ",")
	}

	body := query.Project(proj.Vertex, properties, shapeFromAccept(c))
	if opts.IncludeChangesets {
		body["changesets"] = proj.Changesets
	}
	if proj.Verified != nil {
		body["verified"] = *proj.Verified
	}
	return c.JSON(http.StatusOK, body)
}

// handleUpdate implements PUT /<base>/:id.
func (s *Server) handleUpdate(c echo.Context) error {
	id := c.Param("id")
	userIdentity, nodeIdentity, err := identities(c)
	if err != nil {
		return err
	}

	var desired audit.DesiredVertex
	if err := c.Bind(&desired); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	if err := s.engine.Update(c.Request().Context(), id, desired, userIdentity, nodeIdentity); err != nil {
		return writeEngineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleRemoveVerifiable implements spec §4.6.4's removeVerifiable as a
// DELETE on the verifiable-data sub-resource (a supplemented endpoint:
// spec §6 does not name a path for it, only the engine operation).
func (s *Server) handleRemoveVerifiable(c echo.Context) error {
	id := c.Param("id")
	_, nodeIdentity, err := identities(c)
	if err != nil {
		return err
	}
	if err := s.engine.RemoveVerifiable(c.Request().Context(), id, nodeIdentity); err != nil {
		return writeEngineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleList implements GET /<base>/.
func (s *Server) handleList(c echo.Context) error {
	opts := query.Options{
		IDPrefix:          c.QueryParam("id"),
		IDMode:            vertex.IDMode(defaultString(c.QueryParam("idMode"), string(vertex.IDModeID))),
		OrderBy:           vertex.OrderField(defaultString(c.QueryParam("orderBy"), string(vertex.OrderByDateCreated))),
		OrderByDescending: strings.EqualFold(c.QueryParam("orderByDirection"), "desc"),
		Cursor:            c.QueryParam("cursor"),
	}
	if raw := c.QueryParam("resourceTypes"); raw != "" {
		opts.ResourceTypes = strings.Split(raw, ",")
	}
	if raw := c.QueryParam("conditions"); raw != "" {
		opts.Conditions = strings.Split(raw, ",")
	}
	if raw := c.QueryParam("properties"); raw != "" {
		opts.Properties = strings.Split(raw, ",")
	}
	if raw := c.QueryParam("pageSize"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			opts.PageSize = n
		}
	}

	res, err := query.Run(c.Request().Context(), s.vertices, opts, shapeFromAccept(c))
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
