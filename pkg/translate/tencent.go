// Package translate provides the optional English gloss attached to
// lyric lines.
package translate

import (
	"github.com/rs/zerolog/log"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/regions"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"
)

// Translator turns a Chinese lyric line into English. Translation is
// best-effort decoration: failures return "" and the line is shown
// without a gloss.
type Translator interface {
	Translate(text string) string
}

type tencent struct {
	tmtClient *tmt.Client
}

// NewTencent builds a Translator backed by the tencent tmt service.
func NewTencent(secretID, secretKey string) (Translator, error) {
	credential := common.NewCredential(secretID, secretKey)

	cpf := profile.NewClientProfile()
	cpf.HttpProfile.ReqTimeout = 10

	tmtClient, err := tmt.NewClient(credential, regions.Guangzhou, cpf)
	if err != nil {
		log.Error().Err(err).Msg("new tencent tmt client error")
		return nil, err
	}
	return &tencent{tmtClient: tmtClient}, nil
}

func (t *tencent) Translate(text string) string {
	source, target := "zh", "en"
	id := int64(0)

	request := tmt.NewTextTranslateRequest()
	request.Source = &source
	request.Target = &target
	request.SourceText = &text
	request.ProjectId = &id

	response, err := t.tmtClient.TextTranslate(request)
	if err != nil {
		log.Error().Err(err).Msg("failed to translate lyric line")
		return ""
	}
	if response.Response == nil || response.Response.TargetText == nil {
		return ""
	}
	return *response.Response.TargetText
}
