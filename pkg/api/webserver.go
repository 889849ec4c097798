package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chenBenjamin97/squat-checker/pkg/classify"
	"github.com/chenBenjamin97/squat-checker/pkg/dataset"
	"github.com/chenBenjamin97/squat-checker/pkg/logging"
	"github.com/chenBenjamin97/squat-checker/pkg/store"
	"github.com/chenBenjamin97/squat-checker/pkg/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//Repetitions reads stored repetitions
type Repetitions interface {
	ListRepetitions(ctx context.Context, session string, limit int) ([]store.Record, error)
	CountGood(ctx context.Context, session string, goodClass int) (int, error)
}

//Options wire the router to its dependencies
type Options struct {
	//Classifier serves POST /predict with the offline threshold
	Classifier *classify.Adapter
	//SamplesDir holds the per-video JSON samples
	SamplesDir string
	//Repetitions is optional, /api/Repetitions answers 503 without it
	Repetitions Repetitions
	Logger      *zap.Logger
}

type predictRequest struct {
	Sequence [][]float64 `json:"sequence"`
}

func SetRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(logging.Requests(opts.Logger), logging.Recovery(opts.Logger))

	r.POST("/predict", func(ctx *gin.Context) {
		if opts.Classifier == nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "no model loaded"})
			return
		}

		var req predictRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload: " + err.Error()})
			return
		}

		if req.Sequence == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'sequence' key in JSON payload"})
			return
		}

		res, err := opts.Classifier.Classify(ctx.Request.Context(), req.Sequence)
		if err != nil {
			var shapeErr *classify.ShapeError
			if errors.As(err, &shapeErr) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": shapeErr.Error()})
				return
			}

			opts.Logger.Error("api/predict: Prediction failed", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"prediction": res.Class, "confidence": res.Confidence})
	})

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiRoutes.GET("/SamplesNames", func(ctx *gin.Context) {
		if names, err := utils.ListFilesWithExt(opts.SamplesDir, ".json"); err != nil {
			opts.Logger.Error("api/SamplesNames: Could not list samples", zap.Error(err))
			ctx.Status(http.StatusInternalServerError)
		} else {
			for i := range names {
				names[i] = utils.TrimExt(names[i])
			}
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/Sample", func(ctx *gin.Context) {
		name := ctx.Request.URL.Query().Get("name")
		if name == "" {
			ctx.Status(http.StatusNotAcceptable) //missing url parameter
			return
		}

		samplePath := filepath.Join(opts.SamplesDir, filepath.Base(name)+".json")
		if _, err := os.Stat(samplePath); err != nil {
			if os.IsNotExist(err) {
				ctx.Status(http.StatusNotFound)
			} else {
				ctx.Status(http.StatusInternalServerError)
			}
			return
		}

		sample, err := dataset.ReadSampleJSON(samplePath)
		if err != nil {
			opts.Logger.Error("api/Sample: Could not read sample", zap.String("path", samplePath), zap.Error(err))
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.JSON(http.StatusOK, sample)
	})

	apiRoutes.GET("/Repetitions", func(ctx *gin.Context) {
		if opts.Repetitions == nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "repetition store is disabled"})
			return
		}

		limit := 0
		if l := ctx.Request.URL.Query().Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 0 {
				ctx.Status(http.StatusNotAcceptable)
				return
			}
			limit = n
		}

		records, err := opts.Repetitions.ListRepetitions(ctx.Request.Context(), ctx.Request.URL.Query().Get("session"), limit)
		if err != nil {
			opts.Logger.Error("api/Repetitions: Could not list repetitions", zap.Error(err))
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.JSON(http.StatusOK, records)
	})

	apiRoutes.GET("/SessionSummary", func(ctx *gin.Context) {
		if opts.Repetitions == nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "repetition store is disabled"})
			return
		}

		session := ctx.Request.URL.Query().Get("session")
		if session == "" {
			ctx.Status(http.StatusNotAcceptable) //missing url parameter
			return
		}

		goodClass := utils.GoodFormClass
		if opts.Classifier != nil {
			goodClass = opts.Classifier.Config().GoodClass
		}

		records, err := opts.Repetitions.ListRepetitions(ctx.Request.Context(), session, 0)
		if err != nil {
			opts.Logger.Error("api/SessionSummary: Could not list repetitions", zap.Error(err))
			ctx.Status(http.StatusInternalServerError)
			return
		}

		good, err := opts.Repetitions.CountGood(ctx.Request.Context(), session, goodClass)
		if err != nil {
			opts.Logger.Error("api/SessionSummary: Could not count good repetitions", zap.Error(err))
			ctx.Status(http.StatusInternalServerError)
			return
		}

		if len(records) == 0 {
			ctx.Status(http.StatusNotFound)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"session": session, "repetitions": len(records), "good": good})
	})

	return r
}
