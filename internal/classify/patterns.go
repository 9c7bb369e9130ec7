package classify

import "regexp"

// Pattern tables for heuristic classification. The priority order of the
// rule classes is load-bearing; the individual expressions are tuned
// against real-world provider naming conventions and are expected to
// evolve — treat them as configuration data.

// Group name patterns, tried in live → series → movie order.
var (
	groupLivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(canais?|channels?|tv|live|news|ao vivo|abertos?)\b`),
		regexp.MustCompile(`(?i)\b(globo|sbt|record|band|redetv|cultura)\b`),
		regexp.MustCompile(`(?i)24HRS?`),
		regexp.MustCompile(`24/7`),
		regexp.MustCompile(`(?i)SERIES\s*24H`),
		regexp.MustCompile(`(?i)CANAIS\s*\|`),
		regexp.MustCompile(`(?i)futebol`),
		regexp.MustCompile(`(?i)esporte`),
		regexp.MustCompile(`(?i)sports?`),
		regexp.MustCompile(`(?i)M[UÚ]SICAS?\s*24H`),
		regexp.MustCompile(`(?i)RUNTIME\s*24H`),
		regexp.MustCompile(`(?i)CINE\s+.*24HRS`),
		regexp.MustCompile(`(?i)\bJogos do Dia\b`),
		regexp.MustCompile(`(?i)\b(Esportes?|Sports?)\s*PPV`),
		regexp.MustCompile(`(?i)\b(SPORTV|ESPN|FOX\s*SPORTS|COMBATE)\b`),
		regexp.MustCompile(`(?i)\bPPV\b`),
		regexp.MustCompile(`(?i)\bDOCUMENT[ÁA]RIOS?\b`),
		regexp.MustCompile(`(?i)\bVARIEDADES\b`),
	}

	groupSeriesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)▶️\s*s[eé]ries?`),
		regexp.MustCompile(`(?i)\b(series?|shows?|novelas?|animes?|doramas?|k-?dramas?)\b`),
		regexp.MustCompile(`(?i)#\s*\|\s*(s[eé]ries|novelas)`),
		regexp.MustCompile(`(?i)\btemporadas?\b`),
		regexp.MustCompile(`(?i)s[eé]ries?`),
		regexp.MustCompile(`(?i)[:|]\s*s[eé]ries?`),
		regexp.MustCompile(`(?i)\|\s*br\s*\|\s*s[eé]ries?`),
		regexp.MustCompile(`(?i)\[\s*br\s*\]\s*s[eé]ries?`),
		regexp.MustCompile(`(?i)\bDESENHOS\b`),
	}

	groupMoviePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(filmes?|movies?|cinema|lancamentos?|lançamentos?)\b`),
		regexp.MustCompile(`(?i)\bvod\b`),
		regexp.MustCompile(`(?i)\b(acao|terror|comedia|drama|ficcao|aventura|animacao|suspense|romance)\b`),
		regexp.MustCompile(`(?i)\b(a[cç][aã]o|com[eé]dia|fic[cç][aã]o|anima[cç][aã]o)\b`),
		regexp.MustCompile(`(?i)\b(dublado|legendado|dual|nacional)\b`),
		regexp.MustCompile(`(?i)\b(4k|uhd|fhd|hd)\s*(filmes?|movies?)?\b`),
		regexp.MustCompile(`(?i)[:|]\s*(filmes?|movies?|vod)`),
		regexp.MustCompile(`(?i)\|\s*br\s*\|\s*(filmes?|movies?|vod)`),
		regexp.MustCompile(`(?i)\[\s*br\s*\]\s*(filmes?|movies?|vod)`),
		regexp.MustCompile(`(?i)\bCOLET[AÂ]NEA\b`),
	}
)

// Title patterns.
var (
	titleLivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(24/7|24h|live|ao vivo)\b`),
	}

	// Each independent match counts as one movie signal. A lone year is
	// too weak on its own; two signals (or a movie-indicating group) are
	// required before an entry is classified as a movie.
	titleMoviePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\(\d{4}\)`),
		regexp.MustCompile(`\[\d{4}\]`),
		regexp.MustCompile(`(?i)\b(4k|2160p|1080p|720p|480p|bluray|webrip|hdrip|dvdrip|hdcam|web-dl|bdrip|hdts|hd-ts|cam)\b`),
		regexp.MustCompile(`(?i)\b(dublado|dual|leg|legendado|nacional|dub|sub)\b`),
		regexp.MustCompile(`(?i)\b(acao|terror|comedia|drama|suspense|romance|aventura|animacao|ficcao)\b`),
	}

	titleSeriesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)s\d{1,2}[\s._-]?e\d{1,2}`),
		regexp.MustCompile(`(?i)\b\d{1,2}x\d{1,2}\b`),
		regexp.MustCompile(`(?i)\bT\d{1,2}[\s._-]?E\d{1,2}\b`),
		regexp.MustCompile(`(?i)\btemporada\s*\d+`),
		regexp.MustCompile(`(?i)\bepisodio\s*\d+`),
		regexp.MustCompile(`(?i)\bseason\s*\d+`),
		regexp.MustCompile(`(?i)\bepisode\s*\d+`),
		regexp.MustCompile(`(?i)\bcap[ií]tulo\s*\d+`),
		regexp.MustCompile(`(?i)\bep\.?\s*\d+`),
	}
)

// Special-case overrides checked ahead of the general pattern sets.
var (
	adultContentPattern = regexp.MustCompile(`(?i)xxx|onlyfans|adulto|\+18`)
	tsStreamPattern     = regexp.MustCompile(`(?i)/ts(\?|$)`)
	pattern24h          = regexp.MustCompile(`(?i)\b24h(rs)?\b`)
	pattern247          = regexp.MustCompile(`24/7`)
	coletaneaPattern    = regexp.MustCompile(`(?i)colet[aâ]nea`)
	cine24hPattern      = regexp.MustCompile(`(?i)CINE.*24H`)
	canal24hPrefix      = regexp.MustCompile(`(?i)^24H\s*•`)
	cineTematicoPattern = regexp.MustCompile(`(?i)^CINE\s+\w+\s+\d{2}`)
	eventoHorarioPrefix = regexp.MustCompile(`^\d{1,2}:\d{2}\s+`)
	seriesCheckPattern  = regexp.MustCompile(`(?i)s[eé]ries|series|novelas|animes|doramas`)
	moviesCheckPattern  = regexp.MustCompile(`(?i)filmes|movies|cinema|lancamentos|lançamentos|vod`)
	hashSeriesNovelas   = regexp.MustCompile(`(?i)#\s*\|\s*(s[eé]ries|novelas)`)
	hashFilmesPattern   = regexp.MustCompile(`(?i)#\s*\|\s*filmes?`)
	sPrefixPattern      = regexp.MustCompile(`(?i)\bS\s*•`)
	fPrefixPattern      = regexp.MustCompile(`(?i)\bF\s*•`)
	movieGroupCheck     = regexp.MustCompile(`(?i)filme|movies?|cinema|lancamento|lançamento|f\s*•|▶️\s*filmes?`)
	seriesPatternCheck  = regexp.MustCompile(`(?i)S\d{1,2}E\d{1,3}`)
)

// Title metadata extractors.
var (
	extractorYear           = regexp.MustCompile(`[(\[](\d{4})[)\]]`)
	extractorYearStandalone = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	extractorSeasonEpisode  = regexp.MustCompile(`(?i)s(\d{1,2})[\s._-]?e(\d{1,3})`)
	extractorAltSeasonEp    = regexp.MustCompile(`(\d{1,2})x(\d{1,3})`)
	extractorSeason         = regexp.MustCompile(`(?i)(?:s|season|temporada)[\s._-]?(\d{1,2})`)
	extractorEpisode        = regexp.MustCompile(`(?i)(?:e|episode|episodio)[\s._-]?(\d{1,3})`)
	extractorQuality        = regexp.MustCompile(`(?i)\b(4k|2160p|1080p|720p|480p|360p|hd|fhd|uhd|sd)\b`)
	extractorMultiAudio     = regexp.MustCompile(`(?i)\b(dual|multi|dublado\s*e\s*legendado)\b`)
	extractorDubbed         = regexp.MustCompile(`(?i)\b(dub|dublado|dubbed|nacional)\b`)
	extractorSubbed         = regexp.MustCompile(`(?i)\b(leg|legendado|subbed|sub)\b`)
	extractorLanguage       = regexp.MustCompile(`(?i)\b(pt|por|ptbr|pt-br|en|eng|es|esp|fr|fra|de|deu|it|ita|ja|jpn)\b`)
)

// Episode detection patterns for series aggregation.
var (
	seriesMainPattern = regexp.MustCompile(`(?i)(.+?)\s+S(\d{1,2})E(\d{1,3})`)
	seriesAltPattern  = regexp.MustCompile(`(?i)(.+?)\s+(\d{1,2})x(\d{1,3})\b`)
	seriesPTPattern   = regexp.MustCompile(`(?i)(.+?)\s+T(\d{1,2})E(\d{1,3})`)

	prefixCleaner    = regexp.MustCompile(`^(\[.*?\]|\(.*?\)|⭐|★|•|\+|-|=|#)\s*`)
	numberingCleaner = regexp.MustCompile(`^\d+\.\s+`)
)

// Title cleanup patterns.
var (
	cleanBrackets      = regexp.MustCompile(`[\[(][^\])]*[\])]`)
	cleanFormats       = regexp.MustCompile(`(?i)\b(aac|ac3|dts|x264|x265|hevc|h264|h265|webdl|web-dl|bluray|bdrip|webrip|hdrip|dvdrip|hdcam)\b`)
	cleanAudio         = regexp.MustCompile(`(?i)\b(dub|dublado|dubbed|leg|legendado|subbed|sub|dual|multi|nacional)\b`)
	cleanPipes         = regexp.MustCompile(`\|`)
	cleanMultiSpaces   = regexp.MustCompile(`\s+`)
	cleanTrailingPunct = regexp.MustCompile(`[.\-_]+$`)
)
