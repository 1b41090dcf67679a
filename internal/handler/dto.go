package handler

import (
	"github.com/mhersberg/pictor/internal/domain"
	"github.com/mhersberg/pictor/internal/service"
)

// createdAtFormat is the day-granular stamp shown next to catalog entries.
const createdAtFormat = "2006-01-02"

// TagDTO is the JSON representation of a tag, including the presentation
// colors a client renders it with.
type TagDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Hex         string `json:"hex"`
	ContrastHex string `json:"contrastHex"`
}

func toTagDTO(t domain.Tag) TagDTO {
	style := t.Color.Style()
	return TagDTO{
		ID:          t.ID,
		Name:        t.Name,
		Color:       string(t.Color),
		Hex:         style.Hex,
		ContrastHex: style.Contrast,
	}
}

func toTagDTOs(tags []domain.Tag) []TagDTO {
	dtos := make([]TagDTO, len(tags))
	for i, t := range tags {
		dtos[i] = toTagDTO(t)
	}
	return dtos
}

// ImageDTO is the JSON representation of a catalog entry.
type ImageDTO struct {
	ID            int64    `json:"id"`
	Path          string   `json:"path"`
	ThumbnailPath string   `json:"thumbnailPath"`
	Description   string   `json:"description"`
	Tags          []TagDTO `json:"tags"`
	CreatedAt     string   `json:"createdAt"`
	IsFolder      bool     `json:"isFolder"`
	IsPrepared    bool     `json:"isPrepared"`
}

func toImageDTO(img *domain.Image) ImageDTO {
	return ImageDTO{
		ID:            img.ID,
		Path:          img.Path,
		ThumbnailPath: img.ThumbnailPath,
		Description:   img.Description,
		Tags:          toTagDTOs(img.Tags),
		CreatedAt:     img.CreatedAt.Format(createdAtFormat),
		IsFolder:      img.IsFolder,
		IsPrepared:    img.IsPrepared,
	}
}

func toImageDTOs(images []domain.Image) []ImageDTO {
	dtos := make([]ImageDTO, len(images))
	for i := range images {
		dtos[i] = toImageDTO(&images[i])
	}
	return dtos
}

// PageDTO is the envelope around one page of search results.
type PageDTO struct {
	Content    []ImageDTO `json:"content"`
	TotalPages int        `json:"totalPages"`
	PageNumber int        `json:"pageNumber"`
}

func toPageDTO(p domain.Page[domain.Image]) PageDTO {
	return PageDTO{
		Content:    toImageDTOs(p.Content),
		TotalPages: p.TotalPages,
		PageNumber: p.PageNumber,
	}
}

// SearchStateDTO mirrors service.SearchState on the wire.
type SearchStateDTO struct {
	Query string   `json:"query"`
	Tags  []string `json:"tags"`
	Sort  string   `json:"sort"`
	Page  int      `json:"page"`
}

func toSearchStateDTO(st service.SearchState) SearchStateDTO {
	tags := st.Tags
	if tags == nil {
		tags = []string{}
	}
	return SearchStateDTO{Query: st.Query, Tags: tags, Sort: string(st.Sort), Page: st.Page}
}

func (dto SearchStateDTO) toState() service.SearchState {
	return service.SearchState{
		Query: dto.Query,
		Tags:  dto.Tags,
		Sort:  domain.SortOrder(dto.Sort),
		Page:  dto.Page,
	}
}

// TagInputDTO is a tag as submitted by a client; unknown or missing colors
// fall back to the default.
type TagInputDTO struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func toDomainTags(inputs []TagInputDTO) []domain.Tag {
	tags := make([]domain.Tag, len(inputs))
	for i, in := range inputs {
		color, _ := domain.ParseTagColor(in.Color)
		tags[i] = domain.Tag{Name: in.Name, Color: color}
	}
	return tags
}
