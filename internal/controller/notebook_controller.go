package controller

import (
	"io"
	"log"

	"github.com/gofiber/fiber/v2"

	"notebooklm-chat-be/internal/config"
	"notebooklm-chat-be/internal/dto"
	"notebooklm-chat-be/internal/pkg/serverutils"
	"notebooklm-chat-be/internal/service"
	"notebooklm-chat-be/pkg/notebooklm"
	"notebooklm-chat-be/pkg/store"
)

type INotebookController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ListSources(ctx *fiber.Ctx) error
	AddSource(ctx *fiber.Ctx) error
	UploadSource(ctx *fiber.Ctx) error
}

type notebookController struct {
	cfg     *config.Config
	service service.INotebookService
}

func NewNotebookController(cfg *config.Config, service service.INotebookService) INotebookController {
	return &notebookController{cfg: cfg, service: service}
}

func (c *notebookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notebooks")
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get("/:id", c.Show)
	h.Delete("/:id", c.Delete)
	h.Get("/:id/sources", c.ListSources)
	h.Post("/:id/sources", c.AddSource)
	h.Post("/:id/sources/upload", c.UploadSource)
}

// userToken reads the browser's OAuth access token, if any. An empty value is
// fine: the credential broker falls through to server-side credentials.
func (c *notebookController) userToken(ctx *fiber.Ctx) string {
	creds := serverutils.NewCookieStore(ctx, c.cfg.App.Environment == "production")
	return creds.Get(store.KeyAccessToken)
}

// queryScope builds the upstream addressing scope from query parameters,
// falling back to the configured defaults.
func (c *notebookController) queryScope(ctx *fiber.Ctx) notebooklm.Scope {
	return c.scope(ctx.Query("projectNumber"), ctx.Query("location"), ctx.Query("endpointLocation"))
}

func (c *notebookController) scope(projectNumber, location, endpointLocation string) notebooklm.Scope {
	if projectNumber == "" {
		projectNumber = c.cfg.NotebookLM.ProjectNumber
	}
	if location == "" {
		location = c.cfg.NotebookLM.Location
	}
	if endpointLocation == "" {
		endpointLocation = c.cfg.NotebookLM.EndpointLocation
	}
	return notebooklm.Scope{
		ProjectNumber:    projectNumber,
		Location:         location,
		EndpointLocation: endpointLocation,
	}.WithDefaults()
}

func (c *notebookController) List(ctx *fiber.Ctx) error {
	scope := c.queryScope(ctx)
	if scope.ProjectNumber == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeConfigMissing, "Project number is required", nil)
	}

	notebooks, err := c.service.List(ctx.Context(), c.userToken(ctx), scope)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all notebooks", &dto.ListNotebooksResponse{Notebooks: notebooks}))
}

func (c *notebookController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateNotebookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	scope := c.scope(req.ProjectNumber, req.Location, req.EndpointLocation)
	notebook, err := c.service.Create(ctx.Context(), c.userToken(ctx), scope, req.Title)
	if err != nil {
		return err
	}

	log.Printf("[Notebook] ✅ Created notebook: %s", notebook.NotebookID)
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Notebook created", &dto.NotebookResponse{Notebook: notebook}))
}

func (c *notebookController) Show(ctx *fiber.Ctx) error {
	scope := c.queryScope(ctx)
	if scope.ProjectNumber == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeConfigMissing, "Project number is required", nil)
	}

	notebook, err := c.service.Get(ctx.Context(), c.userToken(ctx), scope, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get notebook", &dto.NotebookResponse{Notebook: notebook}))
}

func (c *notebookController) Delete(ctx *fiber.Ctx) error {
	scope := c.queryScope(ctx)
	if scope.ProjectNumber == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeConfigMissing, "Project number is required", nil)
	}

	notebookID := ctx.Params("id")
	if err := c.service.Delete(ctx.Context(), c.userToken(ctx), scope, notebookID, ctx.Query("notebookName")); err != nil {
		return err
	}

	log.Printf("[Notebook] ✅ Deleted notebook: %s", notebookID)
	return ctx.JSON(serverutils.SuccessResponse[any]("Notebook deleted", nil))
}

func (c *notebookController) ListSources(ctx *fiber.Ctx) error {
	scope := c.queryScope(ctx)
	if scope.ProjectNumber == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeConfigMissing, "Project number is required", nil)
	}

	sources, err := c.service.ListSources(ctx.Context(), c.userToken(ctx), scope, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get sources", &dto.ListSourcesResponse{Sources: sources}))
}

func (c *notebookController) AddSource(ctx *fiber.Ctx) error {
	var req dto.AddSourceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}
	if req.VideoURL == "" && req.GoogleDriveContent == nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "no_source_content", "Either videoUrl or googleDriveContent is required", nil)
	}

	scope := c.scope(req.ProjectNumber, req.Location, req.EndpointLocation)
	sources, err := c.service.AddSource(ctx.Context(), c.userToken(ctx), scope, ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	log.Printf("[Notebook] ✅ Added %d source(s) to notebook %s", len(sources), ctx.Params("id"))
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Source added", &dto.AddSourceResponse{Sources: sources}))
}

func (c *notebookController) UploadSource(ctx *fiber.Ctx) error {
	scope := c.scope(ctx.FormValue("projectNumber"), ctx.FormValue("location"), ctx.FormValue("endpointLocation"))
	if scope.ProjectNumber == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeConfigMissing, "Project number is required", nil)
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "no_file", "File is required", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "file_unreadable", "Failed to read uploaded file", err)
	}
	defer file.Close()

	data := make([]byte, fileHeader.Size)
	if _, err := io.ReadFull(file, data); err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "file_unreadable", "Failed to read uploaded file", err)
	}

	source, err := c.service.UploadSource(
		ctx.Context(),
		c.userToken(ctx),
		scope,
		ctx.Params("id"),
		fileHeader.Filename,
		data,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		return err
	}

	log.Printf("[Notebook] ✅ Uploaded file %q to notebook %s", fileHeader.Filename, ctx.Params("id"))
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("File uploaded", &dto.UploadSourceResponse{Source: source}))
}
